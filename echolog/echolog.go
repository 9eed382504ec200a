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

// Package echolog adapts a [requestlog.Interceptor] to Echo middleware.
//
// Example:
//
//	e := echo.New()
//	e.Use(middleware.Recover())
//	e.Use(echolog.New(rl))
package echolog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rivaas.dev/requestlog"
)

// New returns middleware that logs every request through i.
//
// An [*echo.HTTPError] returned by the handler is a handled response: the
// record carries its code. Any other error, or a panic, is a fault and is
// logged with status 500. In every case the handler's error is returned
// unchanged so Echo's error handler still sees it.
func New(i *requestlog.Interceptor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var handled *echo.HTTPError

			status := requestlog.StatusFunc(func() int {
				if handled != nil && !c.Response().Committed {
					return handled.Code
				}

				return c.Response().Status
			})

			var handledErr error
			err := i.Invoke(status, c.Request(), func(r *http.Request) error {
				c.SetRequest(r)

				err := next(c)
				if errors.As(err, &handled) {
					handledErr = err
					return nil
				}

				return err
			})
			if err != nil {
				return err
			}

			return handledErr
		}
	}
}
