package bfinal_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/advdv/bfinal"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func newTestServer(tb testing.TB, cfg bfinal.Config, setup func(mux *bfinal.ServeMux)) (*httptest.Server, *bfinal.TestLogger) {
	tb.Helper()

	logs := bfinal.NewTestLogger(tb)
	rs, err := bfinal.NewResponder(cfg, bfinal.WithLogger(logs))
	require.NoError(tb, err)

	mux := bfinal.NewServeMuxWith(-1, rs, http.NewServeMux())
	if setup != nil {
		setup(mux)
	}

	srv := httptest.NewServer(mux)
	tb.Cleanup(srv.Close)

	return srv, logs
}

func TestServerNotFound(t *testing.T) {
	srv, _ := newTestServer(t, bfinal.Config{ContentTypeNegotiation: true}, nil)

	var body string
	hdr := http.Header{}
	err := requests.URL(srv.URL).
		Path("/foo").
		Accept("text/plain").
		CheckStatus(http.StatusNotFound).
		CopyHeaders(hdr).
		ToString(&body).
		Fetch(t.Context())
	require.NoError(t, err)

	require.Equal(t, "Cannot GET /foo\n", body)
	require.Equal(t, "text/plain; charset=utf-8", hdr.Get("Content-Type"))
	require.Equal(t, "nosniff", hdr.Get("X-Content-Type-Options"))
}

func TestServerDrainsLargeBody(t *testing.T) {
	srv, logs := newTestServer(t, bfinal.Config{DefaultContentType: bfinal.MediaTypeText}, nil)

	payload := bytes.Repeat([]byte("x"), 4<<20)
	for range 2 {
		var body string
		err := requests.URL(srv.URL).
			Path("/upload").
			BodyBytes(payload).
			CheckStatus(http.StatusNotFound).
			ToString(&body).
			Fetch(t.Context())
		require.NoError(t, err)
		require.Equal(t, "Cannot POST /upload\n", body)
	}

	require.Zero(t, atomic.LoadInt64(&logs.NumLogDrainError))
}

func TestServerDrainLimitClosesConnection(t *testing.T) {
	srv, logs := newTestServer(t, bfinal.Config{DrainLimit: 1024}, nil)

	var closed bool
	var status int
	err := requests.URL(srv.URL).
		Path("/upload").
		BodyBytes(bytes.Repeat([]byte("x"), 64<<10)).
		AddValidator(nil).
		Handle(func(res *http.Response) error {
			status, closed = res.StatusCode, res.Close
			return requests.ToString(new(string))(res)
		}).
		Fetch(t.Context())
	require.NoError(t, err)

	require.Equal(t, http.StatusNotFound, status)
	require.True(t, closed)
	require.Equal(t, int64(1), atomic.LoadInt64(&logs.NumLogDrainError))
}

func TestServerErrorHeaders(t *testing.T) {
	srv, _ := newTestServer(t, bfinal.Config{Env: bfinal.EnvProduction}, func(mux *bfinal.ServeMux) {
		mux.HandleFunc("GET /busy", func(context.Context, bfinal.ResponseWriter, *http.Request) error {
			return bfinal.NewError(bfinal.CodeTooManyRequests, errors.New("queue full")).
				WithHeader("Retry-After", "5")
		})
	})

	var body string
	hdr := http.Header{}
	err := requests.URL(srv.URL).
		Path("/busy").
		CheckStatus(http.StatusTooManyRequests).
		CopyHeaders(hdr).
		ToString(&body).
		Fetch(t.Context())
	require.NoError(t, err)

	require.Equal(t, "5", hdr.Get("Retry-After"))
	require.Contains(t, body, "<pre>Too Many Requests</pre>")
	require.NotContains(t, body, "queue full")
}

func TestServerHead(t *testing.T) {
	srv, _ := newTestServer(t, bfinal.Config{}, nil)

	var body string
	hdr := http.Header{}
	err := requests.URL(srv.URL).
		Path("/foo").
		Head().
		CheckStatus(http.StatusNotFound).
		CopyHeaders(hdr).
		ToString(&body).
		Fetch(t.Context())
	require.NoError(t, err)

	require.Empty(t, body)
	require.Equal(t, "143", hdr.Get("Content-Length"))
}

func TestServerAbortsAfterFlush(t *testing.T) {
	var observed atomic.Int64
	done := make(chan struct{})

	srv, logs := newTestServer(t, bfinal.Config{
		OnError: func(error, *http.Request, http.ResponseWriter) {
			observed.Add(1)
			close(done)
		},
	}, func(mux *bfinal.ServeMux) {
		mux.HandleFunc("GET /stream", func(_ context.Context, w bfinal.ResponseWriter, _ *http.Request) error {
			fmt.Fprint(w, "first chunk")
			if err := http.NewResponseController(w).Flush(); err != nil {
				return err
			}

			return errors.New("failed mid stream")
		})
	})

	var body string
	err := requests.URL(srv.URL).
		Path("/stream").
		ToString(&body).
		Fetch(t.Context())
	require.Error(t, err)

	<-done
	require.Equal(t, int64(1), observed.Load())
	require.Zero(t, atomic.LoadInt64(&logs.NumLogConnectionAbort))
	require.Zero(t, atomic.LoadInt64(&logs.NumLogImplicitFlushError))
}

func TestServerBufferFull(t *testing.T) {
	logs := bfinal.NewTestLogger(t)
	rs, err := bfinal.NewResponder(bfinal.Config{DefaultContentType: bfinal.MediaTypeText}, bfinal.WithLogger(logs))
	require.NoError(t, err)

	srv := httptest.NewServer(bfinal.ToStd(bfinal.BareHandlerFunc(func(w bfinal.ResponseWriter, _ *http.Request) error {
		_, err := fmt.Fprint(w, "more than five bytes")
		return err
	}), 5, rs))
	t.Cleanup(srv.Close)

	var body string
	hdr := http.Header{}
	err = requests.URL(srv.URL).
		CheckStatus(http.StatusInternalServerError).
		CopyHeaders(hdr).
		ToString(&body).
		Fetch(t.Context())
	require.NoError(t, err)

	require.Contains(t, body, "buffer is full")
	require.Equal(t, fmt.Sprint(len(body)), hdr.Get("Content-Length"))
	require.Zero(t, atomic.LoadInt64(&logs.NumLogResponseWriteError))
}

func TestServerObserverReadsHeaders(t *testing.T) {
	type observation struct {
		contentType string
		status      int
		writeErr    error
	}

	observed := make(chan observation, 1)
	srv, _ := newTestServer(t, bfinal.Config{
		DefaultContentType: bfinal.MediaTypeText,
		OnError: func(_ error, _ *http.Request, w http.ResponseWriter) {
			fin, _ := w.(*bfinal.FinishedResponse)
			_, werr := w.Write([]byte("ignored"))
			observed <- observation{w.Header().Get("Content-Type"), fin.Status(), werr}
		},
	}, func(mux *bfinal.ServeMux) {
		mux.HandleFunc("GET /fail", func(_ context.Context, w bfinal.ResponseWriter, _ *http.Request) error {
			w.Header().Set("X-Partial", "1")
			return bfinal.NewError(bfinal.CodeTeapot, errors.New("short and stout"))
		})
	})

	var body string
	err := requests.URL(srv.URL).
		Path("/fail").
		CheckStatus(http.StatusTeapot).
		ToString(&body).
		Fetch(t.Context())
	require.NoError(t, err)
	require.Contains(t, body, "short and stout")

	obs := <-observed
	require.Equal(t, "text/plain; charset=utf-8", obs.contentType)
	require.Equal(t, http.StatusTeapot, obs.status)
	require.ErrorIs(t, obs.writeErr, bfinal.ErrResponseFinished)
}
