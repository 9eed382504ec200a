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

// Package zerologsink writes request records through a zerolog logger.
//
// Example:
//
//	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
//	rl := requestlog.MustNew(requestlog.WithSink(zerologsink.New(logger)))
package zerologsink

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/requestlog"
)

// Sink is a [requestlog.Sink] backed by a [zerolog.Logger].
type Sink struct {
	logger zerolog.Logger
}

var _ requestlog.Sink = (*Sink)(nil)

// New returns a sink writing to logger.
func New(logger zerolog.Logger) *Sink {
	return &Sink{logger: logger}
}

// Emit writes rec with the rendered template as message and one field per
// property. Critical records are written at fatal level without exiting.
func (s *Sink) Emit(ctx context.Context, rec requestlog.Record) {
	e := s.logger.WithLevel(Level(rec.Level))
	if e == nil {
		return
	}

	for _, f := range rec.Fields() {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Name, v)
		case int:
			e = e.Int(f.Name, v)
		case int64:
			e = e.Int64(f.Name, v)
		default:
			e = e.Interface(f.Name, v)
		}
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		e = e.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}

	e.Ctx(ctx).Msg(rec.Message())
}

// Level maps a record level onto the closest zerolog level.
func Level(l requestlog.Level) zerolog.Level {
	switch {
	case l < requestlog.LevelDebug:
		return zerolog.TraceLevel
	case l < requestlog.LevelInfo:
		return zerolog.DebugLevel
	case l < requestlog.LevelWarn:
		return zerolog.InfoLevel
	case l < requestlog.LevelError:
		return zerolog.WarnLevel
	case l < requestlog.LevelCritical:
		return zerolog.ErrorLevel
	default:
		return zerolog.FatalLevel
	}
}
