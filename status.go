package bfinal

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"golang.org/x/net/http/httpguts"
)

// statuser is implemented by errors that carry an explicit response status. It takes precedence
// over [statusCoder].
type statuser interface{ Status() int }

// statusCoder is implemented by errors that carry a status code, [*Error] among them.
type statusCoder interface{ StatusCode() int }

// headerCarrier is implemented by errors that want extra headers on the error response.
type headerCarrier interface{ Header() http.Header }

// errorInfo is everything Finalize needs to know about the error, extracted once.
type errorInfo struct {
	status   int
	explicit bool // status came from the error itself
	header   http.Header
	message  string
}

// validStatus reports whether code is a client or server error status.
func validStatus(code int) bool {
	return code >= http.StatusBadRequest && code <= 599
}

// errorStatus returns the explicit status carried by err together with the element of the chain
// that carried it. A Status() outside of the error range does not stop the lookup of
// StatusCode(), values are never clamped.
func errorStatus(err error) (int, any, bool) {
	var s statuser
	if errors.As(err, &s) && validStatus(s.Status()) {
		return s.Status(), s, true
	}

	var sc statusCoder
	if errors.As(err, &sc) && validStatus(sc.StatusCode()) {
		return sc.StatusCode(), sc, true
	}

	return 0, nil, false
}

// resolveStatus determines the response status for err. The current status of the response is
// only used when the error carries no usable status. The returned source is the error that
// carried the status, nil when the status was not explicit.
func resolveStatus(err error, current int) (status int, source any) {
	if err == nil {
		return http.StatusNotFound, nil
	}

	if status, src, ok := errorStatus(err); ok {
		return status, src
	}

	if validStatus(current) {
		return current, nil
	}

	return http.StatusInternalServerError, nil
}

// errorHeader copies the headers of source, the error that decided the status. Headers of other
// errors in the chain never apply. Names or values that could not be sent on the wire are dropped.
func errorHeader(source any) http.Header {
	hc, ok := source.(headerCarrier)
	if !ok {
		return nil
	}

	hdr := hc.Header()
	if len(hdr) == 0 {
		return nil
	}

	valid := lo.PickBy(hdr, func(name string, values []string) bool {
		if !httpguts.ValidHeaderFieldName(name) {
			return false
		}

		return lo.EveryBy(values, httpguts.ValidHeaderFieldValue)
	})
	if len(valid) == 0 {
		return nil
	}

	return http.Header(valid).Clone()
}

// extractErrorInfo inspects err exactly once. Malformed or missing fields degrade to defaults.
func (rs *Responder) extractErrorInfo(r *http.Request, w http.ResponseWriter, err error) errorInfo {
	info := errorInfo{}

	var source any
	info.status, source = resolveStatus(err, currentStatus(w))
	if source != nil {
		info.explicit = true
		info.header = errorHeader(source)
	}

	info.message = rs.resolveMessage(r, err, info.status)

	return info
}
