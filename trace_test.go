package bfinal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bfinal"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordedResponder(tb testing.TB, cfg bfinal.Config) (*bfinal.Responder, *tracetest.SpanRecorder) {
	tb.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	rs, err := bfinal.NewResponder(cfg,
		bfinal.WithTracerProvider(tp),
		bfinal.WithLogger(bfinal.NewTestLogger(tb)),
		bfinal.WithScheduler(inline))
	require.NoError(tb, err)

	return rs, sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}

	return attrs
}

func TestTraceNotFound(t *testing.T) {
	rs, sr := newRecordedResponder(t, bfinal.Config{})

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/foo", nil)
	rs.Finalize(rec, req, nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "bfinal.Finalize", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Empty(t, spans[0].Events())

	attrs := spanAttrs(spans[0])
	require.Equal(t, "GET", attrs["http.request.method"].AsString())
	require.Equal(t, int64(404), attrs["http.response.status_code"].AsInt64())
	require.Equal(t, "write", attrs["bfinal.outcome"].AsString())
	require.Equal(t, "text/html; charset=utf-8", attrs["bfinal.content_type"].AsString())
}

func TestTraceError(t *testing.T) {
	rs, sr := newRecordedResponder(t, bfinal.Config{DefaultContentType: bfinal.MediaTypeText})

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/foo", nil)
	rs.Finalize(rec, req, bfinal.NewError(bfinal.CodeBadGateway, errors.New("upstream")))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Equal(t, "Bad Gateway", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	require.Equal(t, "exception", spans[0].Events()[0].Name)

	attrs := spanAttrs(spans[0])
	require.Equal(t, int64(502), attrs["http.response.status_code"].AsInt64())
	require.Equal(t, "text/plain; charset=utf-8", attrs["bfinal.content_type"].AsString())
}

func TestTraceAbort(t *testing.T) {
	rs, sr := newRecordedResponder(t, bfinal.Config{})

	rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/foo", nil)
	bw := bfinal.NewResponseWriter(rec, -1)
	defer bw.Free()
	require.NoError(t, bw.FlushBuffer())

	rs.Finalize(bw, req, errors.New("late"))

	spans := sr.Ended()
	require.Len(t, spans, 1)

	attrs := spanAttrs(spans[0])
	require.Equal(t, "abort", attrs["bfinal.outcome"].AsString())
	require.Equal(t, int64(500), attrs["http.response.status_code"].AsInt64())
	_, ok := attrs["bfinal.content_type"]
	require.False(t, ok)
}
