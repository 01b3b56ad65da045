package bfinal

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ResponseWriter implements the http.ResponseWriter but the underlying bytes are buffered. This allows
// the final responder to replace the response of a failing handler completely.
type ResponseWriter interface {
	http.ResponseWriter
	Reset()
	Rewind()
	Free()
	FlushBuffer() error
	HeadersSent() bool
	Status() int
}

// NewResponseWriter buffers writes to resp up to limit bytes, a negative limit disables the limit.
func NewResponseWriter(resp http.ResponseWriter, limit int) ResponseWriter {
	return newBufferResponse(resp, limit)
}

// Handler mirrors http.Handler but it writes to a buffered response and may return an error.
type Handler interface {
	ServeBHTTP(ctx context.Context, w ResponseWriter, r *http.Request) error
}

// HandlerFunc allow casting a function to implement [Handler].
type HandlerFunc func(context.Context, ResponseWriter, *http.Request) error

// ServeBHTTP implements the [Handler] interface.
func (f HandlerFunc) ServeBHTTP(ctx context.Context, w ResponseWriter, r *http.Request) error {
	return f(ctx, w, r)
}

// BareHandler describes how middleware serves HTTP requests. In this library the signature for
// handling middleware [BareHandler] is different from the signature of "leaf" handlers: [Handler].
type BareHandler interface {
	ServeBareBHTTP(w ResponseWriter, r *http.Request) error
}

// BareHandlerFunc allow casting a function to an implementation of [BareHandler].
type BareHandlerFunc func(ResponseWriter, *http.Request) error

// ServeBareBHTTP implements the [BareHandler] interface.
func (f BareHandlerFunc) ServeBareBHTTP(w ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ToBare converts a leaf handler 'h' into a bare buffered handler.
func ToBare(h Handler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		return h.ServeBHTTP(r.Context(), w, r)
	})
}

// ToStd converts a bare handler into a standard library http.Handler. The implementation
// creates a buffered response writer and flushes it implicitly after serving the request. Errors
// returned by the handler are turned into a response by the responder.
func ToStd(h BareHandler, bufLimit int, rs *Responder) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		bresp := NewResponseWriter(resp, bufLimit)
		defer bresp.Free()

		if err := h.ServeBareBHTTP(bresp, req); err != nil {
			if CodeOf(err) == CodeUnknown {
				rs.logs.LogUnhandledServeError(err)
			}

			rs.Finalize(bresp, req, err)
		}

		// an aborted response has no connection left to flush to
		if err := bresp.FlushBuffer(); err != nil && !errors.Is(err, http.ErrHijacked) {
			rs.logs.LogImplicitFlushError(err)
		}
	})
}
