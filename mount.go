package bfinal

import (
	"net/http"
	"strings"
)

// Mount mounts a Handler on a sub-path pattern. The mounted handler receives
// requests with the mount prefix stripped from the path.
func (m *ServeMux) Mount(pattern string, handler Handler) {
	m.MountBare(pattern, ToBare(handler))
}

// MountFunc mounts a HandlerFunc on a sub-path pattern. The mounted handler receives
// requests with the mount prefix stripped from the path.
func (m *ServeMux) MountFunc(pattern string, handler HandlerFunc) {
	m.Mount(pattern, handler)
}

// MountStd mounts a standard library [http.Handler] on a sub-path pattern. The mounted
// handler receives requests with the mount prefix stripped from the path. Middleware
// registered via [ServeMux.Use] is applied and sees the original path. See the
// package-level section "Standard library handlers and error ownership" for details
// on error handling behavior.
func (m *ServeMux) MountStd(pattern string, handler http.Handler) {
	m.MountBare(pattern, BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}))
}

// MountBare mounts a BareHandler on a sub-path pattern. Both the exact path and its subtree are
// registered. Middleware registered via Use() runs before the prefix is stripped. Messages of
// finalized errors keep naming the path as the client sent it.
func (m *ServeMux) MountBare(pattern string, handler BareHandler) {
	method, prefix := splitMethodPattern(pattern)

	h := ToStd(WrapBare(stripMountPrefix(prefix, handler), m.middlewares.buffered...), m.bufLimit, m.rs)
	for _, p := range []string{prefix, prefix + "/"} {
		m.handle(method+p, h)
	}
}

// splitMethodPattern separates an optional "METHOD " from the path of a mux pattern.
func splitMethodPattern(pattern string) (method, path string) {
	if idx := strings.LastIndex(pattern, "/"); idx > 0 {
		if sp := strings.Index(pattern[:idx], " "); sp >= 0 {
			return pattern[:sp+1], pattern[sp+1:]
		}
	}

	return "", pattern
}

// trimMount removes prefix from p. What remains is always rooted.
func trimMount(p, prefix string) string {
	if rest := strings.TrimPrefix(p, prefix); rest != "" {
		return rest
	}

	return "/"
}

// stripMountPrefix serves handler with a copy of the request whose URL lacks prefix. The
// request URI is left alone.
func stripMountPrefix(prefix string, handler BareHandler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		u := *r.URL
		u.Path = trimMount(r.URL.Path, prefix)
		if r.URL.RawPath != "" {
			u.RawPath = trimMount(r.URL.RawPath, prefix)
		}

		r2 := *r
		r2.URL = &u

		return handler.ServeBareBHTTP(w, &r2)
	})
}
