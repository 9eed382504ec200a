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

import "log/slog"

// Option defines functional options for the [Interceptor].
type Option func(*config)

// config holds interceptor configuration before validation.
type config struct {
	// template is the message template source
	template string

	// ignorePaths are wildcard paths to skip
	ignorePaths []string

	// selector maps the final status code to a level
	selector LevelSelector

	// sink receives one record per logged request
	sink Sink
}

func defaultConfig() *config {
	return &config{
		template: DefaultMessageTemplate,
		selector: DefaultLevelSelector,
	}
}

// Settings is the externally configurable part of the interceptor, as
// bound from a configuration section.
type Settings struct {
	// MessageTemplate overrides the default template when set. An explicitly
	// empty value is invalid.
	MessageTemplate *string `config:"messagetemplate" json:"MessageTemplate,omitempty"`

	// IgnorePaths lists wildcard paths exempt from logging.
	IgnorePaths []string `config:"ignorepaths" json:"IgnorePaths,omitempty"`
}

// WithMessageTemplate sets the message template.
//
// Example:
//
//	requestlog.New(
//		requestlog.WithMessageTemplate("{Method} {Path} => {StatusCode} ({HeaderUserAgent})"),
//	)
func WithMessageTemplate(template string) Option {
	return func(c *config) {
		c.template = template
	}
}

// WithIgnorePaths adds wildcard paths that are not logged. Requests to them
// still reach the downstream handler.
//
// Example:
//
//	requestlog.New(
//		requestlog.WithIgnorePaths("/health", "/static/*", "*/metrics"),
//	)
func WithIgnorePaths(paths ...string) Option {
	return func(c *config) {
		c.ignorePaths = append(c.ignorePaths, paths...)
	}
}

// WithLevelSelector sets the function that maps the final status code to the
// record level. Passing nil makes [New] fail.
//
// Example:
//
//	requestlog.New(
//		requestlog.WithLevelSelector(requestlog.StatusClassLevelSelector),
//	)
func WithLevelSelector(selector LevelSelector) Option {
	return func(c *config) {
		c.selector = selector
	}
}

// WithSink sets the destination of the records.
// If not provided, records are written to [slog.Default].
func WithSink(sink Sink) Option {
	return func(c *config) {
		c.sink = sink
	}
}

// WithLogger writes records to logger.
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	requestlog.New(requestlog.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.sink = NewSlogSink(logger)
	}
}

// WithSettings applies settings loaded from configuration. A nil
// MessageTemplate keeps the current template; IgnorePaths are added.
func WithSettings(s Settings) Option {
	return func(c *config) {
		if s.MessageTemplate != nil {
			c.template = *s.MessageTemplate
		}
		c.ignorePaths = append(c.ignorePaths, s.IgnorePaths...)
	}
}
