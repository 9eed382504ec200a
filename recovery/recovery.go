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

// Package recovery provides net/http middleware that recovers from panics,
// logs them and answers with 500 Internal Server Error.
//
// Place it outside the request logging middleware so the panic is still
// observed as a fault by the logger before it is recovered here:
//
//	handler := recovery.New()(rl.Middleware(mux))
package recovery

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
)

// Option defines functional options for the recovery middleware.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	handler    func(w http.ResponseWriter, r *http.Request, err any)
	stackTrace bool
	stackSize  int
}

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		handler:    defaultHandler,
		stackTrace: true,
		stackSize:  4 << 10,
	}
}

func defaultHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// WithoutLogging disables panic logging.
// Useful for tests to avoid noisy output.
func WithoutLogging() Option {
	return func(cfg *config) {
		cfg.logger = nil
	}
}

// WithLogger sets a custom slog.Logger for panic logging.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithHandler sets a custom handler for sending the error response.
//
// Example:
//
//	recovery.New(recovery.WithHandler(func(w http.ResponseWriter, r *http.Request, err any) {
//	    w.WriteHeader(http.StatusServiceUnavailable)
//	}))
func WithHandler(handler func(w http.ResponseWriter, r *http.Request, err any)) Option {
	return func(cfg *config) {
		cfg.handler = handler
	}
}

// WithStackTrace enables or disables stack trace capture.
// Default: true
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize sets the maximum size of the stack trace in bytes.
// Default: 4KB
func WithStackSize(size int) Option {
	return func(cfg *config) {
		cfg.stackSize = size
	}
}

// New returns middleware that recovers from panics in next.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(err)
				}

				if cfg.logger != nil {
					attrs := []slog.Attr{
						slog.String("error", fmt.Sprint(err)),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					}
					if cfg.stackTrace && cfg.stackSize > 0 {
						buf := make([]byte, cfg.stackSize)
						buf = buf[:runtime.Stack(buf, false)]
						attrs = append(attrs, slog.String("stack", string(buf)))
					}
					cfg.logger.LogAttrs(r.Context(), slog.LevelError, "panic recovered", attrs...)
				}

				cfg.handler(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
