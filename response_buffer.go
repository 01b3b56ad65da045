package bfinal

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrBufferFull is returned when a write would grow the buffer past its limit.
var ErrBufferFull = errors.New("buffer is full")

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// ResponseBuffer is a http.ResponseWriter that holds the status, headers and body in memory until
// it is flushed. Until then the response can be rewritten completely, which is what allows an
// error response to replace whatever a failing handler started writing.
type ResponseBuffer struct {
	resp   http.ResponseWriter
	buf    *bytes.Buffer
	header http.Header
	limit  int

	status      int
	wroteHeader bool
	flushed     bool
}

func newBufferResponse(resp http.ResponseWriter, limit int) *ResponseBuffer {
	buf, _ := bufPool.Get().(*bytes.Buffer)
	buf.Reset()

	return &ResponseBuffer{
		resp:   resp,
		buf:    buf,
		header: http.Header{},
		limit:  limit,
	}
}

// Header returns the buffered header map. Changes are sent along with the first flush.
func (w *ResponseBuffer) Header() http.Header {
	return w.header
}

// Write buffers p. A negative limit disables the limit.
func (w *ResponseBuffer) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}

	if w.limit >= 0 && w.buf.Len()+len(p) > w.limit {
		return 0, errors.Wrapf(ErrBufferFull, "limit of %d bytes", w.limit)
	}

	return w.buf.Write(p)
}

// WriteHeader records the status code. Like the standard library only the first call counts.
func (w *ResponseBuffer) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}

	w.status, w.wroteHeader = statusCode, true
}

// Status returns the status code written so far, or zero when none was written.
func (w *ResponseBuffer) Status() int {
	return w.status
}

// HeadersSent reports whether the status and headers were already written to the underlying
// response writer. After that the response can no longer be replaced.
func (w *ResponseBuffer) HeadersSent() bool {
	return w.flushed
}

// Reset clears the buffered body, headers and status. It panics when the response was
// already flushed.
func (w *ResponseBuffer) Reset() {
	if w.flushed {
		panic("bfinal: cannot reset response, already flushed")
	}

	w.buf.Reset()
	w.header = http.Header{}
	w.status, w.wroteHeader = 0, false
}

// Rewind discards the buffered body and status but keeps the headers, so a different response
// can be formed on top of them. The size limit no longer applies after a rewind since the
// replacing response must fit regardless. It does nothing once the response was flushed.
func (w *ResponseBuffer) Rewind() {
	if w.flushed {
		return
	}

	w.buf.Reset()
	w.status, w.wroteHeader = 0, false
	w.limit = -1
}

// FlushBuffer writes everything that is buffered to the underlying writer without flushing the
// underlying writer itself.
func (w *ResponseBuffer) FlushBuffer() error {
	if !w.flushed {
		dst := w.resp.Header()
		for k, v := range w.header {
			dst[k] = v
		}

		status := w.status
		if status == 0 {
			status = http.StatusOK
		}

		w.resp.WriteHeader(status)
		w.flushed, w.wroteHeader = true, true
		w.status = status
	}

	if w.buf.Len() < 1 {
		return nil
	}

	if _, err := w.buf.WriteTo(w.resp); err != nil {
		return errors.Wrap(err, "write buffer to underlying writer")
	}

	return nil
}

// FlushError writes the buffer and flushes the underlying writer. It is used by
// http.ResponseController.
func (w *ResponseBuffer) FlushError() error {
	if err := w.FlushBuffer(); err != nil {
		return err
	}

	if err := http.NewResponseController(w.resp).Flush(); err != nil &&
		!errors.Is(err, http.ErrNotSupported) {
		return errors.Wrap(err, "flush underlying writer")
	}

	return nil
}

// Flush implements http.Flusher.
func (w *ResponseBuffer) Flush() {
	_ = w.FlushError()
}

// Free returns the buffer to the pool. The response writer must not be used afterwards.
func (w *ResponseBuffer) Free() {
	if w.buf == nil {
		return
	}

	w.buf.Reset()
	bufPool.Put(w.buf)
	w.buf = nil
}

// Unwrap returns the underlying writer for http.ResponseController.
func (w *ResponseBuffer) Unwrap() http.ResponseWriter {
	return w.resp
}

var _ ResponseWriter = &ResponseBuffer{}
