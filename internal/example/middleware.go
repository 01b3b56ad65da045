// Package example implements example middleware in an outside package.
package example

import (
	"net/http"
	"sync/atomic"

	"github.com/advdv/bfinal"
	"github.com/cockroachdb/errors"
)

// Recoverer provides an example of middleware that turns panics into errors, so the final responder
// renders them like any other error.
func Recoverer() bfinal.Middleware {
	return func(next bfinal.BareHandler) bfinal.BareHandler {
		return bfinal.BareHandlerFunc(func(w bfinal.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if e := recover(); e != nil {
					err = bfinal.NewError(bfinal.CodeInternalServerError, errors.Newf("recovered: %v", e))
				}
			}()

			return next.ServeBareBHTTP(w, r)
		})
	}
}

// RetryAfter provides an example of middleware that rejects requests with a header carrying error
// once limit requests were served.
func RetryAfter(limit int64, seconds string) bfinal.Middleware {
	var served atomic.Int64

	return func(next bfinal.BareHandler) bfinal.BareHandler {
		return bfinal.BareHandlerFunc(func(w bfinal.ResponseWriter, r *http.Request) error {
			if served.Add(1) > limit {
				return bfinal.NewError(bfinal.CodeTooManyRequests, errors.New("request limit reached")).
					WithHeader("Retry-After", seconds)
			}

			return next.ServeBareBHTTP(w, r)
		})
	}
}
