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
	"errors"
	"fmt"
)

// Sentinel errors identifying the kind of a [ConfigError].
// They are matched with [errors.Is]; the message returned by a [ConfigError]
// itself is the operator-facing text.
var (
	// ErrInvalidTemplate indicates a malformed message template
	// (unbalanced or nested braces, a non-letter property body, or a blank template).
	ErrInvalidTemplate = errors.New("invalid message template")

	// ErrUnexpectedProperty indicates a template property name that cannot be resolved.
	ErrUnexpectedProperty = errors.New("unexpected template property")

	// ErrNilLevelSelector indicates that no level selector was supplied.
	ErrNilLevelSelector = errors.New("nil level selector")

	// ErrLevelSelectorPanic indicates that the level selector panicked for a
	// status code of the canonical domain.
	ErrLevelSelectorPanic = errors.New("level selector panicked")

	// ErrEmptyIgnorePath indicates an empty or whitespace-only ignore path.
	ErrEmptyIgnorePath = errors.New("empty ignore path")
)

// ConfigError is returned by [New] when the interceptor configuration is invalid.
// Error returns the operator-facing message; Unwrap exposes both the sentinel
// kind and, when present, the underlying cause.
type ConfigError struct {
	// Kind is one of the package sentinel errors.
	Kind error

	// Property is the offending property name for [ErrUnexpectedProperty].
	Property string

	// StatusCode is the offending status code for [ErrLevelSelectorPanic].
	StatusCode int

	// Err is the underlying cause, if any.
	Err error

	msg string
}

// Error returns the operator-facing message.
func (e *ConfigError) Error() string {
	return e.msg
}

// Unwrap returns the sentinel kind and the cause so that [errors.Is] and
// [errors.As] match either of them.
func (e *ConfigError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

func invalidTemplateError() *ConfigError {
	return &ConfigError{
		Kind: ErrInvalidTemplate,
		msg:  "Message template is invalid.",
	}
}

func unexpectedPropertyError(name string) *ConfigError {
	return &ConfigError{
		Kind:     ErrUnexpectedProperty,
		Property: name,
		msg:      fmt.Sprintf("Encountered an unexpected property '%s'.", name),
	}
}

func nilLevelSelectorError() *ConfigError {
	return &ConfigError{
		Kind: ErrNilLevelSelector,
		msg:  "Log level selector cannot be null.",
	}
}

func levelSelectorPanicError(statusCode int, cause error) *ConfigError {
	return &ConfigError{
		Kind:       ErrLevelSelectorPanic,
		StatusCode: statusCode,
		Err:        cause,
		msg:        fmt.Sprintf("Log level selector throws an exception on status code %d.", statusCode),
	}
}

func emptyIgnorePathError() *ConfigError {
	return &ConfigError{
		Kind: ErrEmptyIgnorePath,
		msg:  "Ignore path cannot be null or empty.",
	}
}
