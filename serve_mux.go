package bfinal

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ServeMux is an HTTP multiplexer with buffered responses whose errors, and requests that match no
// route, end up at a single [Responder].
type ServeMux struct {
	rs          *Responder
	bufLimit    int
	mux         *http.ServeMux
	middlewares struct {
		captured bool
		buffered []Middleware
	}
}

// NewServeMux creates a new ServeMux with default settings: a development responder, unlimited
// buffering and the standard library's default logger.
func NewServeMux() *ServeMux {
	rs, err := NewResponder(Config{})
	if err != nil {
		panic("bfinal: default responder: " + err.Error())
	}

	return NewServeMuxWith(-1, rs, http.NewServeMux())
}

// NewServeMuxWith creates a ServeMux with custom settings.
func NewServeMuxWith(bufLimit int, rs *Responder, baseMux *http.ServeMux) *ServeMux {
	return &ServeMux{
		bufLimit: bufLimit,
		rs:       rs,
		mux:      baseMux,
	}
}

// Use allows providing of middleware.
func (m *ServeMux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.middlewares.buffered = append(m.middlewares.buffered, mw...)
}

// HandleFunc handles the request given the pattern using a function.
func (m *ServeMux) HandleFunc(pattern string, handler HandlerFunc) {
	m.Handle(pattern, handler)
}

// HandleStd registers a standard library [http.Handler] for the given pattern. Middleware
// registered via [ServeMux.Use] is applied. The handler owns its response: it never returns an error
// so the responder only steps in when middleware fails.
func (m *ServeMux) HandleStd(pattern string, handler http.Handler) {
	m.Handle(pattern, HandlerFunc(func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}))
}

// Handle handles the request given a handler.
func (m *ServeMux) Handle(pattern string, handler Handler) {
	m.handle(pattern, ToStd(
		Wrap(handler, m.middlewares.buffered...),
		m.bufLimit,
		m.rs,
	))
}

// ServeHTTP makes the server mux implement the http.Handler interface. Requests that match no
// pattern are finalized as not found. When only the method is wrong the responder sends a 405
// with an Allow header instead.
func (m *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := m.mux.Handler(r); pattern != "" {
		m.mux.ServeHTTP(w, r)
		return
	}

	if allowed := m.allowedMethods(r); len(allowed) > 0 {
		m.rs.Finalize(w, r, NewError(CodeMethodNotAllowed, errors.Newf("%s is not allowed", r.Method)).
			WithHeader("Allow", strings.Join(allowed, ", ")))

		return
	}

	m.rs.Finalize(w, r, nil)
}

// routableMethods are tried when a request matched no pattern. CONNECT is left out since the
// standard mux routes it by host only.
var routableMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodTrace,
}

// allowedMethods lists the methods for which the path of r would have matched a pattern.
func (m *ServeMux) allowedMethods(r *http.Request) []string {
	return lo.Filter(routableMethods, func(method string, _ int) bool {
		if method == r.Method {
			return false
		}

		alt := *r
		alt.Method = method
		_, pattern := m.mux.Handler(&alt)

		return pattern != ""
	})
}

func (m *ServeMux) handle(pattern string, handler http.Handler) {
	m.middlewares.captured = true
	m.mux.Handle(pattern, handler)
}

func (m *ServeMux) ensureNoUseAfterHandle() {
	if m.middlewares.captured {
		panic("bfinal: cannot call Use() after calling Handle")
	}
}
