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

package zerologsink_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/requestlog"
	"rivaas.dev/requestlog/zerologsink"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}

	return out
}

func TestSink_Emit(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	i := requestlog.MustNew(
		requestlog.WithSink(zerologsink.New(zerolog.New(&buf))),
		requestlog.WithMessageTemplate("{Method} {Path} {StatusCode} {HeaderXRequestId} {ClaimUserId}"),
		requestlog.WithLevelSelector(requestlog.StatusClassLevelSelector),
	)

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-Request-Id", "abc")
	i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})).ServeHTTP(httptest.NewRecorder(), req)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "GET /orders 404 abc ", lines[0]["message"])
	assert.Equal(t, "GET", lines[0]["Method"])
	assert.InDelta(t, 404, lines[0]["StatusCode"], 0)
	assert.Equal(t, "abc", lines[0]["HeaderXRequestId"])
	assert.Contains(t, lines[0], "ClaimUserId")
	assert.Nil(t, lines[0]["ClaimUserId"])
}

func TestSink_TraceCorrelation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := zerologsink.New(zerolog.New(&buf))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	sink.Emit(ctx, requestlog.Record{
		Level:    requestlog.LevelCritical,
		Template: requestlog.MustParseTemplate("{Path}"),
		Values:   []any{"/"},
	})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "fatal", lines[0]["level"])
	assert.Equal(t, sc.TraceID().String(), lines[0]["trace_id"])
	assert.Equal(t, sc.SpanID().String(), lines[0]["span_id"])
}

func TestSink_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := zerologsink.New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	sink.Emit(context.Background(), requestlog.Record{
		Level:    requestlog.LevelDebug,
		Template: requestlog.MustParseTemplate("hidden"),
	})
	assert.Zero(t, buf.Len())
}

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   requestlog.Level
		want zerolog.Level
	}{
		{requestlog.LevelTrace, zerolog.TraceLevel},
		{requestlog.LevelDebug, zerolog.DebugLevel},
		{requestlog.LevelInfo, zerolog.InfoLevel},
		{requestlog.LevelWarn, zerolog.WarnLevel},
		{requestlog.LevelError, zerolog.ErrorLevel},
		{requestlog.LevelCritical, zerolog.FatalLevel},
		{requestlog.LevelInfo + 1, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, zerologsink.Level(tt.in), tt.in.String())
	}
}
