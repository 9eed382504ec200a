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

// Package requestlog logs one structured record per HTTP request, at a level
// chosen from the response status code.
//
// An [Interceptor] is built once from a message template, a level selector
// and a set of ignore paths. Configuration errors surface from [New], so a
// misconfigured service fails at startup instead of on its first request.
//
// # Basic Usage
//
//	rl := requestlog.MustNew(requestlog.WithLogger(logger))
//	http.ListenAndServe(":8080", rl.Middleware(mux))
//
// With the default template a request logs as
//
//	GET /orders?page=2 responded 200 in 12 ms.
//
// # Message Templates
//
// Templates are literal text with brace-delimited properties. Property names
// are letters only:
//
//	Method           request method
//	Path             request path
//	QueryString      "?" followed by the raw query, or empty
//	Protocol         e.g. "HTTP/1.1"
//	Scheme           "http" or "https"
//	RemoteIpAddress  client address without port
//	UserAgent        User-Agent header
//	StatusCode       final status code
//	ElapsedMs        elapsed whole milliseconds
//
// Two families are resolved dynamically. HeaderXxx reads a request header
// and ClaimXxx reads an identity claim; the suffix is turned into a lookup
// key by [LookupKey], so {HeaderUserAgent} reads "user-agent" and
// {ClaimUserId} reads the "user-id" claim. Claims are attached by
// authentication code below the interceptor with [AddClaims].
//
// # Ignore Paths
//
// Ignore paths match the whole request path; '*' matches any run of
// characters:
//
//	requestlog.WithIgnorePaths("/health", "/static/*", "*/metrics")
//
// # Faults
//
// A downstream handler that panics, or a continuation passed to
// [Interceptor.Invoke] that returns an error, is logged with status 500 and
// the fault is passed on unchanged.
//
// # Sinks
//
// Records go to a [Sink]. The default writes to [slog.Default]; other
// backends live in sibling packages (zerologsink, zapsink).
package requestlog
