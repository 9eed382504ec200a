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

package config

import "fmt"

// Error reports a failure while loading, validating or binding configuration.
// Section is set when the failure concerns one named section, such as a
// request logging section that does not satisfy its schema.
type Error struct {
	Source    string
	Section   string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("config: %s %s: %v", e.Operation, e.Source, e.Err)
	}

	return fmt.Sprintf("config: %s %s of section %q: %v", e.Operation, e.Source, e.Section, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an [Error] raised by a source.
func NewError(source, operation string, err error) *Error {
	return &Error{Source: source, Operation: operation, Err: err}
}

// NewSectionError returns an [Error] for the section at name.
func NewSectionError(source, section, operation string, err error) *Error {
	return &Error{Source: source, Section: section, Operation: operation, Err: err}
}
