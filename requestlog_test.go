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

package requestlog_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/requestlog"
	"rivaas.dev/requestlog/requestlogtest"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	i, err := requestlog.New()
	require.NoError(t, err)
	assert.Equal(t, requestlog.DefaultMessageTemplate, i.Template().Text())
	assert.Empty(t, i.IgnorePaths())
	assert.False(t, i.Ignored("/"))
}

func TestNew_InvalidTemplate(t *testing.T) {
	t.Parallel()

	_, err := requestlog.New(requestlog.WithMessageTemplate("{foo bar}"))
	require.ErrorIs(t, err, requestlog.ErrInvalidTemplate)
	assert.EqualError(t, err, "Message template is invalid.")
}

func TestNew_UnexpectedProperty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		property string
	}{
		{"{Foo}", "Foo"},
		{"Test {Bar} {Baz}", "Bar"},
		{"Test {Header} {Baz}", "Header"},
		{"Test {Claim} {Baz}", "Claim"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			t.Parallel()

			_, err := requestlog.New(requestlog.WithMessageTemplate(tt.template))
			require.ErrorIs(t, err, requestlog.ErrUnexpectedProperty)
			assert.EqualError(t, err, fmt.Sprintf("Encountered an unexpected property '%s'.", tt.property))

			var cfgErr *requestlog.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.property, cfgErr.Property)
		})
	}
}

func TestNew_LevelSelector(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		t.Parallel()

		_, err := requestlog.New(requestlog.WithLevelSelector(nil))
		require.ErrorIs(t, err, requestlog.ErrNilLevelSelector)
		assert.EqualError(t, err, "Log level selector cannot be null.")
	})

	t.Run("panics on teapot", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("short and stout")
		_, err := requestlog.New(requestlog.WithLevelSelector(func(code int) requestlog.Level {
			if code == http.StatusTeapot {
				panic(cause)
			}
			return requestlog.LevelInfo
		}))

		require.ErrorIs(t, err, requestlog.ErrLevelSelectorPanic)
		require.ErrorIs(t, err, cause)
		assert.EqualError(t, err, "Log level selector throws an exception on status code 418.")
	})
}

func TestNew_EmptyIgnorePath(t *testing.T) {
	t.Parallel()

	_, err := requestlog.New(requestlog.WithIgnorePaths("/ok", "  "))
	require.ErrorIs(t, err, requestlog.ErrEmptyIgnorePath)
	assert.EqualError(t, err, "Ignore path cannot be null or empty.")
}

func TestNew_ValidationOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []requestlog.Option
		want error
	}{
		{
			name: "template before selector",
			opts: []requestlog.Option{
				requestlog.WithMessageTemplate("{}"),
				requestlog.WithLevelSelector(nil),
			},
			want: requestlog.ErrInvalidTemplate,
		},
		{
			name: "selector before ignore paths",
			opts: []requestlog.Option{
				requestlog.WithLevelSelector(nil),
				requestlog.WithIgnorePaths(""),
			},
			want: requestlog.ErrNilLevelSelector,
		},
		{
			name: "ignore paths before properties",
			opts: []requestlog.Option{
				requestlog.WithMessageTemplate("{Foo}"),
				requestlog.WithIgnorePaths(""),
			},
			want: requestlog.ErrEmptyIgnorePath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := requestlog.New(tt.opts...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_Settings(t *testing.T) {
	t.Parallel()

	tmpl := "{Method} {Path}"
	i, err := requestlog.New(requestlog.WithSettings(requestlog.Settings{
		MessageTemplate: &tmpl,
		IgnorePaths:     []string{"/health", "/health"},
	}))
	require.NoError(t, err)
	assert.Equal(t, tmpl, i.Template().Text())
	assert.Equal(t, []string{"/health"}, i.IgnorePaths())

	i, err = requestlog.New(requestlog.WithSettings(requestlog.Settings{}))
	require.NoError(t, err)
	assert.Equal(t, requestlog.DefaultMessageTemplate, i.Template().Text())

	empty := ""
	_, err = requestlog.New(requestlog.WithSettings(requestlog.Settings{MessageTemplate: &empty}))
	require.ErrorIs(t, err, requestlog.ErrInvalidTemplate)
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		requestlog.MustNew(requestlog.WithIgnorePaths(""))
	})
}

func TestInvoke_Completed(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t)
	req := httptest.NewRequest(http.MethodGet, "/items?id=1", nil)

	called := false
	err := th.Interceptor.Invoke(requestlog.StatusFunc(func() int { return http.StatusAccepted }), req,
		func(*http.Request) error {
			called = true
			return nil
		})

	require.NoError(t, err)
	assert.True(t, called)

	e, ok := th.Recorder.Last()
	require.True(t, ok)
	assert.Regexp(t, `^GET /items\?id=1 responded 202 in \d+ ms\.$`, e.Message)
	assert.Less(t, e.Fields["ElapsedMs"], int64(100))
	assert.Equal(t, requestlog.LevelInfo, e.Level)
	assert.Equal(t, requestlog.DefaultMessageTemplate, e.Template)
}

func TestInvoke_ErrorIsFault(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t, requestlog.WithLevelSelector(requestlog.StatusClassLevelSelector))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	boom := errors.New("boom")

	err := th.Interceptor.Invoke(requestlog.StatusFunc(func() int {
		t.Error("status must not be read after a fault")
		return http.StatusOK
	}), req, func(*http.Request) error {
		return boom
	})

	assert.Same(t, boom, err)
	require.Equal(t, 1, th.Recorder.Len())

	e, _ := th.Recorder.Last()
	assert.Equal(t, http.StatusInternalServerError, e.Fields["StatusCode"])
	assert.Equal(t, requestlog.LevelError, e.Level)
}

func TestInvoke_PanicIsFault(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sentinel := errors.New("handler exploded")

	assert.PanicsWithValue(t, sentinel, func() {
		_ = th.Interceptor.Invoke(requestlog.StatusFunc(func() int { return http.StatusOK }), req,
			func(*http.Request) error {
				panic(sentinel)
			})
	})

	require.Equal(t, 1, th.Recorder.Len())
	e, _ := th.Recorder.Last()
	assert.Equal(t, http.StatusInternalServerError, e.Fields["StatusCode"])
}

func TestInvoke_CanceledContextIsFault(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t)
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx)
	cancel()

	err := th.Interceptor.Invoke(requestlog.StatusFunc(func() int { return http.StatusOK }), req,
		func(r *http.Request) error {
			<-r.Context().Done()
			return r.Context().Err()
		})

	require.ErrorIs(t, err, context.Canceled)
	e, _ := th.Recorder.Last()
	assert.Equal(t, http.StatusInternalServerError, e.Fields["StatusCode"])
}

func TestInvoke_Ignored(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t, requestlog.WithIgnorePaths("/health"))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	boom := errors.New("boom")

	err := th.Interceptor.Invoke(nil, req, func(*http.Request) error { return boom })

	assert.Same(t, boom, err)
	assert.Zero(t, th.Recorder.Len())
}

func TestInvoke_Claims(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t, requestlog.WithMessageTemplate("{ClaimUserId} {ClaimRole}"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.False(t, requestlog.AddClaims(req.Context(), requestlog.Claim{Type: "user-id", Value: "lost"}))

	err := th.Interceptor.Invoke(requestlog.StatusFunc(func() int { return http.StatusOK }), req,
		func(r *http.Request) error {
			assert.True(t, requestlog.AddClaims(r.Context(),
				requestlog.Claim{Type: "user-id", Value: "42"},
				requestlog.Claim{Type: "user-id", Value: "43"},
			))
			assert.Len(t, requestlog.ClaimsFromContext(r.Context()), 2)
			return nil
		})
	require.NoError(t, err)

	e, _ := th.Recorder.Last()
	assert.Equal(t, []any{"42", nil}, e.Values)
	assert.Equal(t, "42 ", e.Message)
}

type accountID string

func (a *accountID) String() string { return string(*a) }

func TestInvoke_NilStringerClaimKeepsFault(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t, requestlog.WithMessageTemplate("{ClaimSub} {StatusCode}"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	downstream := errors.New("downstream failed")

	var err error
	require.NotPanics(t, func() {
		err = th.Interceptor.Invoke(requestlog.StatusFunc(func() int { return http.StatusOK }), req,
			func(r *http.Request) error {
				requestlog.AddClaims(r.Context(), requestlog.Claim{Type: "sub", Value: (*accountID)(nil)})
				return downstream
			})
	})

	require.ErrorIs(t, err, downstream)
	e, ok := th.Recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "<nil> 500", e.Message)
}

func TestInterceptor_Concurrent(t *testing.T) {
	t.Parallel()

	th := requestlogtest.NewTestHelper(t, requestlog.WithMessageTemplate("{Path} {StatusCode} {ElapsedMs}"))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			time.Sleep(30 * time.Millisecond)
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	const n = 20
	var wg sync.WaitGroup
	for k := range n {
		path := "/fast"
		if k%2 == 0 {
			path = "/slow"
		}
		wg.Go(func() {
			th.Serve(handler, httptest.NewRequest(http.MethodGet, path, nil))
		})
	}
	wg.Wait()

	entries := th.Recorder.Entries()
	require.Len(t, entries, n)

	for _, e := range entries {
		switch e.Fields["Path"] {
		case "/slow":
			assert.Equal(t, http.StatusAccepted, e.Fields["StatusCode"])
			assert.GreaterOrEqual(t, e.Fields["ElapsedMs"], int64(30))
		case "/fast":
			assert.Equal(t, http.StatusOK, e.Fields["StatusCode"])
		default:
			t.Fatalf("unexpected path %v", e.Fields["Path"])
		}
	}
}

func TestWithLogger_TraceCorrelation(t *testing.T) {
	t.Parallel()

	logger, h := requestlogtest.NewLogger()
	i := requestlog.MustNew(
		requestlog.WithLogger(logger),
		requestlog.WithMessageTemplate("{Method} {Path} {Method}"),
	)

	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	req := httptest.NewRequest(http.MethodDelete, "/x", nil).WithContext(ctx)
	i.Middleware(okHandler(http.StatusNoContent)).ServeHTTP(httptest.NewRecorder(), req)

	records := h.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "DELETE /x DELETE", records[0].Message)
	assert.Equal(t, requestlog.LevelInfo, records[0].Level)
	assert.Equal(t, map[string]any{
		"Method":   http.MethodDelete,
		"Path":     "/x",
		"trace_id": traceID.String(),
		"span_id":  spanID.String(),
	}, records[0].Attrs)
}

func TestWithLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	logger, buf := requestlogtest.NewJSONLogger()
	i := requestlog.MustNew(
		requestlog.WithLogger(logger),
		requestlog.WithLevelSelector(func(code int) requestlog.Level {
			if code >= http.StatusInternalServerError {
				return requestlog.LevelCritical
			}
			return requestlog.LevelTrace
		}),
	)

	i.Middleware(okHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/a", nil))
	i.Middleware(okHandler(http.StatusBadGateway)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/b", nil))

	entries, err := requestlogtest.ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "DEBUG-4", entries[0].Level)
	assert.Equal(t, "ERROR+4", entries[1].Level)
	assert.Contains(t, entries[1].Message, "GET /b responded 502 in ")
	assert.InDelta(t, 502, entries[1].Attrs["StatusCode"], 0)
}

func TestRecord_Fields(t *testing.T) {
	t.Parallel()

	rec := requestlog.Record{
		Template: requestlog.MustParseTemplate("{Path} {Method} {Path}"),
		Values:   []any{"/a", "GET", "/a"},
	}

	assert.Equal(t, []requestlog.Field{
		{Name: "Path", Value: "/a"},
		{Name: "Method", Value: "GET"},
	}, rec.Fields())
	assert.Equal(t, "/a GET /a", rec.Message())

	assert.Empty(t, requestlog.Record{}.Message())
	assert.Nil(t, requestlog.Record{}.Fields())
}

func TestSinkFunc(t *testing.T) {
	t.Parallel()

	var got requestlog.Record
	i := requestlog.MustNew(requestlog.WithSink(requestlog.SinkFunc(func(_ context.Context, rec requestlog.Record) {
		got = rec
	})))

	i.Middleware(okHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "/", got.Values[1])
}
