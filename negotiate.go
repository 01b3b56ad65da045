package bfinal

import (
	"net/http"

	"github.com/golang/gddo/httputil"
)

const (
	// MediaTypeHTML selects the html representation of the error body.
	MediaTypeHTML = "text/html"
	// MediaTypeText selects the plain text representation of the error body.
	MediaTypeText = "text/plain"
)

// offers are the representations a client can negotiate, in order of preference.
var offers = []string{MediaTypeHTML, MediaTypeText}

// negotiate picks the representation of the error body for the request.
func (rs *Responder) negotiate(r *http.Request) string {
	if !rs.cfg.ContentTypeNegotiation {
		return rs.cfg.DefaultContentType
	}

	// without a preference the first offer wins
	if len(r.Header.Values("Accept")) == 0 {
		return offers[0]
	}

	return httputil.NegotiateContentType(r, offers, MediaTypeText)
}
