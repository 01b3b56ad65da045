package bfinal

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrDrainLimit is reported when the request body is larger than the configured drain limit.
var ErrDrainLimit = errors.New("request body exceeds drain limit")

// drainResult is posted by the reading goroutine when it stops reading.
type drainResult struct {
	n   int64
	err error
}

// detachBody takes exclusive ownership of the request body. Code that reads the request after
// this point sees an empty body. It returns nil when there is nothing left to drain.
func detachBody(r *http.Request) io.ReadCloser {
	body := r.Body
	if body == nil || body == http.NoBody {
		return nil
	}

	r.Body = http.NoBody

	return body
}

// drain reads body until it is exhausted, limit bytes were discarded (when limit > 0) or ctx
// is done. The body is always closed before drain returns.
func drain(ctx context.Context, body io.ReadCloser, limit int64) error {
	done := make(chan drainResult, 1)
	go func() {
		var src io.Reader = body
		if limit > 0 {
			src = io.LimitReader(body, limit+1)
		}

		n, err := io.Copy(io.Discard, src)
		done <- drainResult{n: n, err: err}
	}()

	select {
	case res := <-done:
		if cerr := body.Close(); cerr != nil && res.err == nil {
			res.err = errors.Wrap(cerr, "close request body")
		}

		if res.err != nil {
			return errors.Wrap(res.err, "drain request body")
		}

		if limit > 0 && res.n > limit {
			return errors.Wrapf(ErrDrainLimit, "discarded more than %d bytes", limit)
		}

		return nil
	case <-ctx.Done():
		// closing unblocks the reader goroutine
		_ = body.Close()
		return errors.Wrap(ctx.Err(), "drain request body")
	}
}
