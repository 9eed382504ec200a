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

// Package requestlogtest provides test doubles for code that uses requestlog:
// an in-memory [Recorder] sink, a capturing [slog.Handler] and helpers to
// parse JSON log output.
package requestlogtest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rivaas.dev/requestlog"
)

// Entry is a captured record.
type Entry struct {
	Level    requestlog.Level
	Template string
	Message  string
	Values   []any
	Fields   map[string]any
}

// Recorder is a [requestlog.Sink] that keeps every record in memory.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty [Recorder].
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements [requestlog.Sink].
func (r *Recorder) Emit(_ context.Context, rec requestlog.Record) {
	e := Entry{
		Level:   rec.Level,
		Message: rec.Message(),
		Values:  slices.Clone(rec.Values),
		Fields:  make(map[string]any),
	}
	if rec.Template != nil {
		e.Template = rec.Template.Text()
	}
	for _, f := range rec.Fields() {
		e.Fields[f.Name] = f.Value
	}

	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

// Entries returns a copy of the captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.entries)
}

// Len returns the number of captured entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Last returns the most recent entry.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == 0 {
		return Entry{}, false
	}

	return r.entries[len(r.entries)-1], true
}

// Reset drops all captured entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// SlogRecord is a record captured by [Handler].
type SlogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Handler is a [slog.Handler] that captures records for assertions.
type Handler struct {
	mu      sync.Mutex
	records []SlogRecord
}

// NewLogger returns a logger writing into a new capturing [Handler].
func NewLogger() (*slog.Logger, *Handler) {
	h := &Handler{}

	return slog.New(h), h
}

// Enabled implements [slog.Handler].
func (h *Handler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements [slog.Handler].
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	h.records = append(h.records, SlogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	h.mu.Unlock()

	return nil
}

// WithAttrs implements [slog.Handler].
func (h *Handler) WithAttrs([]slog.Attr) slog.Handler {
	return h
}

// WithGroup implements [slog.Handler].
func (h *Handler) WithGroup(string) slog.Handler {
	return h
}

// Records returns a copy of the captured records.
func (h *Handler) Records() []SlogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	return slices.Clone(h.records)
}

// LogEntry is a parsed JSON log line.
type LogEntry struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// NewJSONLogger returns a JSON logger writing into an in-memory buffer at
// every level, including [requestlog.LevelTrace].
func NewJSONLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: requestlog.LevelTrace}))

	return logger, buf
}

// ParseJSONLogEntries parses JSON log lines from buf without consuming it.
func ParseJSONLogEntries(buf *bytes.Buffer) ([]LogEntry, error) {
	var entries []LogEntry

	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var raw map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &raw); err != nil {
			return nil, err
		}

		le := LogEntry{Attrs: make(map[string]any)}
		for k, v := range raw {
			switch k {
			case slog.TimeKey:
			case slog.LevelKey:
				le.Level, _ = v.(string)
			case slog.MessageKey:
				le.Message, _ = v.(string)
			default:
				le.Attrs[k] = v
			}
		}
		entries = append(entries, le)
	}

	return entries, scanner.Err()
}

// TestHelper bundles an interceptor with the recorder it writes to.
type TestHelper struct {
	Interceptor *requestlog.Interceptor
	Recorder    *Recorder
}

// NewTestHelper builds an interceptor that writes to a fresh [Recorder].
// Additional options are applied after the sink is set.
func NewTestHelper(t testing.TB, opts ...requestlog.Option) *TestHelper {
	t.Helper()

	rec := NewRecorder()
	i, err := requestlog.New(append([]requestlog.Option{requestlog.WithSink(rec)}, opts...)...)
	require.NoError(t, err)

	return &TestHelper{Interceptor: i, Recorder: rec}
}

// Serve sends req through the interceptor's middleware to h and returns
// the recorded response.
func (th *TestHelper) Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	th.Interceptor.Middleware(h).ServeHTTP(w, req)

	return w
}
