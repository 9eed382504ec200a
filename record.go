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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Field names for trace correlation.
const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// Record is the structured log entry produced for one request: a severity,
// the compiled template and the property values in template order.
type Record struct {
	Level    Level
	Template *Template
	Values   []any
}

// Field is one named property value of a [Record].
type Field struct {
	Name  string
	Value any
}

// Message renders the template with the record values.
func (r Record) Message() string {
	if r.Template == nil {
		return ""
	}

	return r.Template.Render(r.Values)
}

// Fields returns the property values keyed by property name, in template
// order. A property referenced more than once keeps its first value.
func (r Record) Fields() []Field {
	if r.Template == nil || len(r.Values) == 0 {
		return nil
	}

	props := r.Template.properties
	fields := make([]Field, 0, len(props))

outer:
	for i, p := range props {
		if i >= len(r.Values) {
			break
		}
		for _, f := range fields {
			if f.Name == p.Name {
				continue outer
			}
		}
		fields = append(fields, Field{Name: p.Name, Value: r.Values[i]})
	}

	return fields
}

// Sink writes records to a logging backend. Emit is called once per logged
// request, concurrently from many requests, and must not retain rec.Values
// beyond the call unless it copies them.
type Sink interface {
	Emit(ctx context.Context, rec Record)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, rec Record)

// Emit calls f(ctx, rec).
func (f SinkFunc) Emit(ctx context.Context, rec Record) {
	f(ctx, rec)
}

// slogSink writes records through a [slog.Logger]: the rendered template is
// the message and each property becomes an attribute. When ctx carries a
// valid OpenTelemetry span, trace_id and span_id are added.
type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a [Sink] backed by logger. A nil logger resolves to
// [slog.Default] on every emit so later calls to [slog.SetDefault] apply.
func NewSlogSink(logger *slog.Logger) Sink {
	return &slogSink{logger: logger}
}

func (s *slogSink) Emit(ctx context.Context, rec Record) {
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(ctx, rec.Level) {
		return
	}

	fields := rec.Fields()
	attrs := make([]slog.Attr, 0, len(fields)+2)
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Name, f.Value))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String(fieldTraceID, sc.TraceID().String()),
			slog.String(fieldSpanID, sc.SpanID().String()),
		)
	}

	logger.LogAttrs(ctx, rec.Level, rec.Message(), attrs...)
}
