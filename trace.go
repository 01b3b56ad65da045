package bfinal

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "github.com/advdv/bfinal"

// outcome of a finalize, recorded on the span.
const (
	outcomeWrite = "write"
	outcomeAbort = "abort"
)

var (
	attrOutcome     = attribute.Key("bfinal.outcome")
	attrStatusCode  = attribute.Key("http.response.status_code")
	attrContentType = attribute.Key("bfinal.content_type")
)

var noopTracer = noop.NewTracerProvider().Tracer(tracerName)

// startSpan starts the span a single finalize runs in.
func (rs *Responder) startSpan(r *http.Request) trace.Span {
	_, span := rs.tracer.Start(r.Context(), "bfinal.Finalize",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("http.request.method", r.Method)))

	return span
}

// endSpan records what the finalize did.
func endSpan(span trace.Span, info errorInfo, outcome, contentType string, err error) {
	span.SetAttributes(
		attrOutcome.String(outcome),
		attrStatusCode.Int(info.status))
	if contentType != "" {
		span.SetAttributes(attrContentType.String(contentType))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, http.StatusText(info.status))
	}

	span.End()
}
