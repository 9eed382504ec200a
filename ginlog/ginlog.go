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

// Package ginlog adapts a [requestlog.Interceptor] to Gin middleware.
//
// Example:
//
//	r := gin.New()
//	r.Use(gin.Recovery(), ginlog.New(rl))
package ginlog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rivaas.dev/requestlog"
)

// New returns a handler that logs every request through i.
//
// The record carries the status written by the chain. A panic is logged with
// status 500 and then continues to an outer recovery handler such as
// [gin.Recovery]. Errors attached with c.Error are not faults; the status
// the handler chose already reflects them.
func New(i *requestlog.Interceptor) gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = i.Invoke(requestlog.StatusFunc(c.Writer.Status), c.Request, func(r *http.Request) error {
			c.Request = r
			c.Next()

			return nil
		})
	}
}
