package bfinal

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// headerSender is implemented by response writers that know whether the response head
// already reached the client, such as [ResponseBuffer].
type headerSender interface{ HeadersSent() bool }

// statusReporter is implemented by response writers that know the status code written so far.
type statusReporter interface{ Status() int }

// rewinder is implemented by response writers that can discard output that was not sent yet.
type rewinder interface{ Rewind() }

// rwUnwrapper mirrors what http.ResponseController uses to find the underlying writer.
type rwUnwrapper interface{ Unwrap() http.ResponseWriter }

// findWriter walks the Unwrap chain of w until match returns true.
func findWriter(w http.ResponseWriter, match func(http.ResponseWriter) bool) bool {
	for w != nil {
		if match(w) {
			return true
		}

		u, ok := w.(rwUnwrapper)
		if !ok {
			return false
		}

		w = u.Unwrap()
	}

	return false
}

// headersSent reports whether any writer in the chain already sent the response head. Writers
// that cannot tell are assumed to not have sent anything.
func headersSent(w http.ResponseWriter) (sent bool) {
	findWriter(w, func(w http.ResponseWriter) bool {
		hs, ok := w.(headerSender)
		if ok {
			sent = hs.HeadersSent()
		}

		return ok
	})

	return sent
}

// currentStatus returns the status code the response carries so far, or 0.
func currentStatus(w http.ResponseWriter) (status int) {
	findWriter(w, func(w http.ResponseWriter) bool {
		sr, ok := w.(statusReporter)
		if ok {
			status = sr.Status()
		}

		return ok
	})

	return status
}

// abortConnection closes the connection underneath a response that can no longer be
// completed. Transports that do not allow hijacking are left alone.
func abortConnection(w http.ResponseWriter) error {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		return errors.Wrap(err, "hijack connection")
	}

	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "close hijacked connection")
	}

	return nil
}
