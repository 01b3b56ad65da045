package bfinal

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/trace"
)

// FinalizeFunc responds to a request that no handler responded to. A nil error means no
// handler matched and results in a 404. It must be called at most once.
type FinalizeFunc func(err error)

// Responder finalizes requests. It is safe for concurrent use, construct it once and use it for
// every request.
type Responder struct {
	cfg        Config
	production bool
	logs       Logger
	schedule   func(func())
	tracer     trace.Tracer
}

// NewResponder validates cfg and inits the responder.
func NewResponder(cfg Config, opts ...Option) (*Responder, error) {
	cfg, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	rs := &Responder{
		cfg:        cfg,
		production: cfg.IsProduction(),
		schedule:   goSchedule,
		tracer:     noopTracer,
	}
	for _, opt := range opts {
		opt(rs)
	}

	if rs.logs == nil {
		rs.logs = NewStdLogger(nil)
	}

	return rs, nil
}

// New returns the finalize function for a single request.
func New(w http.ResponseWriter, r *http.Request, cfg Config, opts ...Option) (FinalizeFunc, error) {
	rs, err := NewResponder(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return rs.Finalizer(w, r), nil
}

// Finalizer binds the responder to a single request.
func (rs *Responder) Finalizer(w http.ResponseWriter, r *http.Request) FinalizeFunc {
	return func(err error) {
		rs.Finalize(w, r, err)
	}
}

// Finalize writes the error response for err, or a 404 when err is nil. When the response head was
// already sent nothing can be written anymore and the connection is closed instead.
func (rs *Responder) Finalize(w http.ResponseWriter, r *http.Request, err error) {
	span := rs.startSpan(r)
	info := rs.extractErrorInfo(r, w, err)

	if headersSent(w) {
		rs.abort(w)
		endSpan(span, info, outcomeAbort, "", err)
		rs.observe(err, r, w, currentStatus(w))

		return
	}

	// a buffered writer may still hold what the failing handler wrote
	if rw, ok := w.(rewinder); ok {
		rw.Rewind()
	}

	b := buildBody(rs.negotiate(r), info.message)

	rs.drainRequest(w, r)

	outcome := outcomeWrite
	if werr := rs.write(w, r, info, b); werr != nil {
		rs.logs.LogResponseWriteError(werr)
		rs.abort(w)
		outcome = outcomeAbort
	}

	endSpan(span, info, outcome, b.contentType, err)
	rs.observe(err, r, w, info.status)
}

// abort closes the connection and logs when that is not possible.
func (rs *Responder) abort(w http.ResponseWriter) {
	if aerr := abortConnection(w); aerr != nil {
		rs.logs.LogConnectionAbort(aerr)
	}
}

// observe schedules the error observer once the response is done. The observer only ever sees
// a snapshot so it can run concurrently with whatever happens to w afterwards.
func (rs *Responder) observe(err error, r *http.Request, w http.ResponseWriter, status int) {
	if err == nil || rs.cfg.OnError == nil {
		return
	}

	onError, fin := rs.cfg.OnError, finishedFrom(w, status)
	rs.schedule(func() { onError(err, r, fin) })
}

// drainRequest consumes what is left of the request body so the response is not written while
// the body is still being read.
func (rs *Responder) drainRequest(w http.ResponseWriter, r *http.Request) {
	body := detachBody(r)
	if body == nil {
		return
	}

	if err := drain(r.Context(), body, rs.cfg.DrainLimit); err != nil {
		rs.logs.LogDrainError(err)

		// the connection cannot be reused with unread bytes on it
		w.Header().Set("Connection", "close")
	}
}

// securityHeader is set on every error response.
var securityHeader = http.Header{
	"X-Content-Type-Options":  {"nosniff"},
	"Content-Security-Policy": {"default-src 'none'"},
}

// write sends the status, headers and body of the error response.
func (rs *Responder) write(w http.ResponseWriter, r *http.Request, info errorInfo, b body) error {
	hdr := w.Header()

	// the error body replaces whatever representation was prepared
	hdr.Del("Content-Encoding")
	hdr.Del("Content-Language")
	hdr.Del("Content-Range")

	for name, values := range info.header {
		hdr[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	for name, values := range securityHeader {
		hdr[name] = append([]string(nil), values...)
	}

	hdr.Set("Content-Type", b.contentType)
	hdr.Set("Content-Length", b.length())

	w.WriteHeader(info.status)
	if r.Method == http.MethodHead {
		return nil
	}

	if _, err := w.Write(b.payload); err != nil {
		return errors.Wrap(err, "write error response body")
	}

	return nil
}
