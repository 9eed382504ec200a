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
	"fmt"
	"log/slog"
	"net/http"
)

// Level is the severity of a request record.
type Level = slog.Level

// Severity levels. Trace and Critical extend the four [slog] levels by one
// step in each direction.
const (
	LevelTrace    Level = slog.LevelDebug - 4
	LevelDebug          = slog.LevelDebug
	LevelInfo           = slog.LevelInfo
	LevelWarn           = slog.LevelWarn
	LevelError          = slog.LevelError
	LevelCritical Level = slog.LevelError + 4
)

// LevelSelector maps a final response status code to the severity of the
// record emitted for that request. A selector must be a pure function; one
// that panics for any code of [StatusCodes] is rejected by [New].
type LevelSelector func(statusCode int) Level

// DefaultLevelSelector logs every request at [LevelInfo].
func DefaultLevelSelector(int) Level {
	return LevelInfo
}

// StatusClassLevelSelector logs server errors at [LevelError], client errors
// at [LevelWarn] and everything else at [LevelInfo].
func StatusClassLevelSelector(statusCode int) Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return LevelError
	case statusCode >= http.StatusBadRequest:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// validateLevelSelector evaluates sel once for every code of the canonical
// domain and reports the first code it panics on.
func validateLevelSelector(sel LevelSelector) error {
	if sel == nil {
		return nilLevelSelectorError()
	}

	for _, code := range statusCodes {
		if err := probeLevelSelector(sel, code); err != nil {
			return levelSelectorPanicError(code, err)
		}
	}

	return nil
}

func probeLevelSelector(sel LevelSelector, statusCode int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()

	_ = sel(statusCode)

	return nil
}

// panicError returns the recovered value itself when it is an error so that
// callers can still match it with errors.Is.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}

	return fmt.Errorf("%v", r)
}
