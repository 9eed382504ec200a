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

// Package requestid assigns a request ID to every HTTP request.
//
// The ID is stored in the request header as well as in the response header,
// so a request logging template can reference it as {HeaderXRequestId}.
package requestid

import (
	"context"
	"crypto/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// DefaultHeader is the header that carries the request ID.
const DefaultHeader = "X-Request-ID"

type contextKey struct{}

// Option defines functional options for the requestid middleware.
type Option func(*config)

type config struct {
	// headerName is the name of the header to use for the request ID
	headerName string

	// generator creates new request IDs
	generator func() string

	// allowClientID keeps request IDs sent by clients
	allowClientID bool
}

func defaultConfig() *config {
	return &config{
		headerName:    DefaultHeader,
		generator:     generateUUIDv7,
		allowClientID: true,
	}
}

// generateUUIDv7 returns a time-ordered UUID (RFC 9562).
func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy     = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyLock sync.Mutex
)

// generateULID returns a ULID, monotonic within the same millisecond.
func generateULID() string {
	ulidEntropyLock.Lock()
	defer ulidEntropyLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// WithHeader sets the request ID header name.
func WithHeader(name string) Option {
	return func(c *config) {
		c.headerName = name
	}
}

// WithGenerator sets a custom ID generator.
func WithGenerator(fn func() string) Option {
	return func(c *config) {
		c.generator = fn
	}
}

// WithULID generates 26-character ULIDs instead of UUIDs.
func WithULID() Option {
	return WithGenerator(generateULID)
}

// WithAllowClientID controls whether an ID sent by the client is kept.
// Default: true
func WithAllowClientID(allow bool) Option {
	return func(c *config) {
		c.allowClientID = allow
	}
}

// New returns middleware that ensures every request has an ID.
//
// Example:
//
//	handler := requestid.New()(rl.Middleware(mux))
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if cfg.allowClientID {
				id = r.Header.Get(cfg.headerName)
			}
			if id == "" {
				id = cfg.generator()
			}

			r = r.WithContext(context.WithValue(r.Context(), contextKey{}, id))
			r.Header.Set(cfg.headerName, id)
			w.Header().Set(cfg.headerName, id)

			next.ServeHTTP(w, r)
		})
	}
}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)

	return id
}
