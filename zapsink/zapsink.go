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

// Package zapsink writes request records through a zap logger.
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	defer logger.Sync()
//	rl := requestlog.MustNew(requestlog.WithSink(zapsink.New(logger)))
package zapsink

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"rivaas.dev/requestlog"
)

// Sink is a [requestlog.Sink] backed by a [zap.Logger].
type Sink struct {
	logger *zap.Logger
}

var _ requestlog.Sink = (*Sink)(nil)

// New returns a sink writing to logger. A nil logger discards records.
func New(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sink{logger: logger}
}

// Emit writes rec with the rendered template as message and one field per
// property.
func (s *Sink) Emit(ctx context.Context, rec requestlog.Record) {
	lvl := Level(rec.Level)
	if !s.logger.Core().Enabled(lvl) {
		return
	}

	ce := s.logger.Check(lvl, rec.Message())
	if ce == nil {
		return
	}

	fields := rec.Fields()
	zf := make([]zap.Field, 0, len(fields)+3)
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Name, f.Value))
	}

	// zap has no level above error that leaves the process running.
	if rec.Level >= requestlog.LevelCritical {
		zf = append(zf, zap.Bool("critical", true))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		zf = append(zf,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	ce.Write(zf...)
}

// Level maps a record level onto the closest zap level. Trace maps to debug
// and Critical to error.
func Level(l requestlog.Level) zapcore.Level {
	switch {
	case l < requestlog.LevelInfo:
		return zapcore.DebugLevel
	case l < requestlog.LevelWarn:
		return zapcore.InfoLevel
	case l < requestlog.LevelError:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
