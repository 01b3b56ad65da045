// Command bfinal-demo serves a few routes that fail in different ways, to show the error responses
// of the final responder. Configure it through the BFINAL_* environment variables.
package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/advdv/bfinal"
	"github.com/advdv/bfinal/finalfx"
	"github.com/advdv/bfinal/internal/example"
	"github.com/cockroachdb/errors"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.NopLogger,
		finalfx.Module,
		finalfx.Server,
		fx.Provide(finalfx.NewLogger),
		fx.Invoke(routes),
	).Run()
}

func routes(mux *bfinal.ServeMux) {
	mux.Use(example.Recoverer(), example.RetryAfter(100, "60"))

	mux.HandleFunc("GET /hello/{name}", func(_ context.Context, w bfinal.ResponseWriter, r *http.Request) error {
		_, err := fmt.Fprintf(w, "hello, %s\n", r.PathValue("name"))
		return err
	})

	mux.HandleFunc("GET /fail", func(context.Context, bfinal.ResponseWriter, *http.Request) error {
		return errors.New("something <broke> & failed")
	})

	mux.HandleFunc("GET /gone", func(context.Context, bfinal.ResponseWriter, *http.Request) error {
		return bfinal.NewError(bfinal.CodeGone, errors.New("this resource was removed"))
	})

	mux.HandleFunc("GET /panic", func(context.Context, bfinal.ResponseWriter, *http.Request) error {
		panic("handler panicked")
	})

	mux.HandleFunc("GET /stream", func(_ context.Context, w bfinal.ResponseWriter, _ *http.Request) error {
		fmt.Fprintln(w, "first line")
		if err := http.NewResponseController(w).Flush(); err != nil {
			return err
		}

		// the response head is out, the responder can only close the connection
		return errors.New("failed mid stream")
	})
}
