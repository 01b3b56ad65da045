package bfinal

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// resourceFallback names the resource when the request carries no usable path.
const resourceFallback = "resource"

// resolveMessage builds the diagnostic message shown to the client.
func (rs *Responder) resolveMessage(r *http.Request, err error, status int) string {
	if err == nil {
		return "Cannot " + r.Method + " " + resourceName(r)
	}

	if rs.production {
		return http.StatusText(status)
	}

	// cockroachdb/errors prints the stack for errors that carry one.
	if msg := fmt.Sprintf("%+v", err); msg != "" {
		return msg
	}

	return http.StatusText(status)
}

// resourceName returns the escaped path of the request as it was originally received, so
// that prefix stripping by mounts does not show up in the message.
func resourceName(r *http.Request) string {
	if r.RequestURI != "" {
		if u, err := url.ParseRequestURI(r.RequestURI); err == nil {
			if p := u.EscapedPath(); p != "" {
				return p
			}
		}
	}

	if r.URL == nil {
		return resourceFallback
	}

	if p := r.URL.EscapedPath(); p != "" && strings.HasPrefix(p, "/") {
		return p
	}

	return resourceFallback
}
