// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package requestlog

import (
	"context"
	"net/http"
	"time"
)

// StatusReporter exposes the status code a handler produced. It is read
// once, after the downstream call returned without fault.
type StatusReporter interface {
	StatusCode() int
}

// StatusFunc adapts a function to [StatusReporter].
type StatusFunc func() int

// StatusCode calls f().
func (f StatusFunc) StatusCode() int {
	return f()
}

// Interceptor times requests and emits one record per request that is not
// ignored. All of its state is fixed at construction, so a single instance
// serves any number of concurrent requests.
type Interceptor struct {
	template *Template
	resolver *resolver
	ignore   *PathMatcher
	selector LevelSelector
	sink     Sink
}

// New validates the configuration and returns an interceptor.
//
// Validation runs in a fixed order and stops at the first failure: the
// message template, the level selector (probed for every code of
// [StatusCodes]), the ignore paths and finally the template properties.
// Every failure is a [*ConfigError].
//
// Example:
//
//	rl, err := requestlog.New(
//		requestlog.WithLogger(logger),
//		requestlog.WithIgnorePaths("/health"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", rl.Middleware(mux))
func New(opts ...Option) (*Interceptor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	tmpl, err := ParseTemplate(cfg.template)
	if err != nil {
		return nil, err
	}

	if err = validateLevelSelector(cfg.selector); err != nil {
		return nil, err
	}

	ignore, err := CompileIgnorePaths(cfg.ignorePaths...)
	if err != nil {
		return nil, err
	}

	res, err := newResolver(tmpl.properties)
	if err != nil {
		return nil, err
	}

	sink := cfg.sink
	if sink == nil {
		sink = NewSlogSink(nil)
	}

	return &Interceptor{
		template: tmpl,
		resolver: res,
		ignore:   ignore,
		selector: cfg.selector,
		sink:     sink,
	}, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Interceptor {
	i, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return i
}

// Template returns the compiled message template.
func (i *Interceptor) Template() *Template {
	return i.template
}

// IgnorePaths returns the distinct ignore patterns.
func (i *Interceptor) IgnorePaths() []string {
	return i.ignore.Patterns()
}

// Ignored reports whether requests to path are exempt from logging.
func (i *Interceptor) Ignored(path string) bool {
	return i.ignore.Match(path)
}

// Invoke runs next for r and, unless the path is ignored, emits exactly one
// record once next has finished.
//
// next faults when it returns a non-nil error or panics. Either way the
// record carries status 500, and the fault reaches the caller unchanged: the
// error is returned as-is and a panic continues with its original value.
// Otherwise the status code is read from w.
//
// The request passed to next carries a context that accepts [AddClaims].
func (i *Interceptor) Invoke(w StatusReporter, r *http.Request, next func(*http.Request) error) error {
	if i.Ignored(requestPath(r)) {
		return next(r)
	}

	return i.intercept(w, r, next)
}

func (i *Interceptor) intercept(w StatusReporter, r *http.Request, next func(*http.Request) error) (err error) {
	ctx, claims := withClaimSet(r.Context())
	r = r.WithContext(ctx)

	start := time.Now()
	completed := false

	defer func() {
		elapsed := time.Since(start)

		status := http.StatusInternalServerError
		if completed && err == nil {
			status = w.StatusCode()
		}

		i.emit(ctx, NewOutcome(r, status, elapsed, claims.snapshot()))
	}()

	err = next(r)
	completed = true

	return err
}

func (i *Interceptor) emit(ctx context.Context, o *Outcome) {
	i.sink.Emit(ctx, Record{
		Level:    i.selector(o.StatusCode),
		Template: i.template,
		Values:   i.resolver.resolve(o),
	})
}

func requestPath(r *http.Request) string {
	if r.URL == nil {
		return ""
	}

	return r.URL.Path
}
