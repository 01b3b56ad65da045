package bfinal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetachBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Nil(t, detachBody(req))

	req.Body = nil
	require.Nil(t, detachBody(req))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))
	body := detachBody(req)
	require.NotNil(t, body)
	require.Equal(t, http.NoBody, req.Body)

	// a second detach finds nothing left
	require.Nil(t, detachBody(req))
}

func TestDrain(t *testing.T) {
	ctx := context.Background()

	t.Run("unlimited", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(strings.Repeat("x", 1<<20)))
		require.NoError(t, drain(ctx, body, 0))
	})

	t.Run("within limit", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(strings.Repeat("x", 10)))
		require.NoError(t, drain(ctx, body, 10))
	})

	t.Run("past limit", func(t *testing.T) {
		body := io.NopCloser(strings.NewReader(strings.Repeat("x", 11)))
		require.ErrorIs(t, drain(ctx, body, 10), ErrDrainLimit)
	})

	t.Run("read error", func(t *testing.T) {
		pr, pw := io.Pipe()
		go func() {
			_, _ = pw.Write([]byte("partial"))
			pw.CloseWithError(io.ErrUnexpectedEOF)
		}()

		require.ErrorIs(t, drain(ctx, pr, 0), io.ErrUnexpectedEOF)
	})

	t.Run("context done", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		require.ErrorIs(t, drain(cctx, pr, 0), context.Canceled)

		// the reader was closed so writers are released
		_, err := pw.Write([]byte("x"))
		require.ErrorIs(t, err, io.ErrClosedPipe)
	})
}
