package bfinal

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrResponseFinished is returned when writing to a [FinishedResponse].
var ErrResponseFinished = errors.New("response already finished")

// FinishedResponse is the response as it was left by the responder. It is what the [ErrorObserver]
// receives: a copy of the final headers and status that can be read from any goroutine. Writes to
// it fail with [ErrResponseFinished].
type FinishedResponse struct {
	header http.Header
	status int
}

func finishedFrom(w http.ResponseWriter, status int) *FinishedResponse {
	return &FinishedResponse{header: w.Header().Clone(), status: status}
}

// Header returns a copy of the headers the response was finished with.
func (f *FinishedResponse) Header() http.Header { return f.header }

// Write always fails.
func (f *FinishedResponse) Write([]byte) (int, error) {
	return 0, errors.WithStack(ErrResponseFinished)
}

// WriteHeader does nothing.
func (f *FinishedResponse) WriteHeader(int) {}

// Status returns the status code the response was finished with, zero when unknown.
func (f *FinishedResponse) Status() int { return f.status }

var _ http.ResponseWriter = &FinishedResponse{}
