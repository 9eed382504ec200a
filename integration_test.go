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

// This file contains end-to-end tests that run the interceptor inside a real
// HTTP server.

//go:build integration

package requestlog_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/requestlog"
	"rivaas.dev/requestlog/requestlogtest"
)

// recoverer turns panics into 500 responses so the server keeps the
// connection usable; it sits outside the interceptor.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

var _ = Describe("Request logging over HTTP", func() {
	var (
		interceptor *requestlog.Interceptor
		sink        *requestlogtest.Recorder
		server      *httptest.Server
		mux         *http.ServeMux
	)

	get := func(path string) *http.Response {
		resp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		_, _ = io.Copy(io.Discard, resp.Body)
		Expect(resp.Body.Close()).To(Succeed())

		return resp
	}

	BeforeEach(func() {
		mux = http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/teapot", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		mux.HandleFunc("/panic", func(http.ResponseWriter, *http.Request) {
			panic(errors.New("downstream failure"))
		})
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/health2", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		sink = requestlogtest.NewRecorder()
		interceptor = requestlog.MustNew(
			requestlog.WithSink(sink),
			requestlog.WithIgnorePaths("/health"),
			requestlog.WithLevelSelector(requestlog.StatusClassLevelSelector),
		)

		server = httptest.NewServer(recoverer(interceptor.Middleware(mux)))
		DeferCleanup(server.Close)
	})

	Context("with the default template", func() {
		It("logs one record for a successful request", func() {
			start := time.Now()
			resp := get("/?q=test&t=foo%20bar")
			took := time.Since(start)

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(sink.Len()).To(Equal(1))

			e, _ := sink.Last()
			Expect(e.Level).To(Equal(requestlog.LevelInfo))
			Expect(e.Fields).To(HaveKeyWithValue("StatusCode", http.StatusOK))
			Expect(e.Fields).To(HaveKeyWithValue("QueryString", "?q=test&t=foo%20bar"))
			Expect(e.Fields["ElapsedMs"]).To(BeNumerically(">=", 0))
			Expect(e.Fields["ElapsedMs"]).To(BeNumerically("<=", took.Milliseconds()+100))
		})

		It("logs the status chosen by the handler", func() {
			get("/teapot")

			e, _ := sink.Last()
			Expect(e.Fields).To(HaveKeyWithValue("StatusCode", http.StatusTeapot))
			Expect(e.Level).To(Equal(requestlog.LevelWarn))
		})
	})

	Context("when the handler panics", func() {
		It("logs status 500 once and lets the panic through", func() {
			resp := get("/panic")

			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(sink.Entries()).To(HaveLen(1))

			e, _ := sink.Last()
			Expect(e.Fields).To(HaveKeyWithValue("StatusCode", http.StatusInternalServerError))
			Expect(e.Level).To(Equal(requestlog.LevelError))
		})
	})

	Context("with ignore paths", func() {
		It("skips exact matches only", func() {
			Expect(get("/health").StatusCode).To(Equal(http.StatusOK))
			Expect(sink.Len()).To(BeZero())

			get("/health2")
			get("/api/health")
			Expect(sink.Len()).To(Equal(2))
		})
	})

	Context("under concurrent load", func() {
		It("keeps per-request state separate", func() {
			done := make(chan struct{})
			for range 10 {
				go func() {
					defer GinkgoRecover()
					get("/teapot")
					done <- struct{}{}
				}()
				go func() {
					defer GinkgoRecover()
					get("/")
					done <- struct{}{}
				}()
			}
			for range 20 {
				Eventually(done).Should(Receive())
			}

			counts := map[any]int{}
			for _, e := range sink.Entries() {
				counts[e.Fields["StatusCode"]]++
			}
			Expect(counts).To(Equal(map[any]int{http.StatusOK: 10, http.StatusTeapot: 10}))
		})
	})
})
