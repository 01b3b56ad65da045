// Package bfinal provides the final responder of an HTTP handler chain: the piece that answers a request
// when no handler matched it, or when a handler failed with an error.
//
// # Overview
//
// Finalizing a request is a single decision followed by a single write:
//
//   - A status is derived from the error, or 404 when there is no error
//   - A short diagnostic message is built: the error details in development, only the status text in production
//   - The message is rendered as a minimal HTML document or as plain text
//   - Any unread request body is drained before the response is written
//   - When the response head was already sent the connection is closed instead of written to
//
// A minimal example:
//
//	rs, err := bfinal.NewResponder(bfinal.Config{Env: "production"})
//	if err != nil {
//	    return err
//	}
//
//	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//	    done := rs.Finalizer(w, r)
//	    if err := serve(w, r); err != nil {
//	        done(err)
//	    }
//	})
//
// # Status Codes
//
// Errors choose their status by implementing Status() int or StatusCode() int, anywhere in their
// wrap chain. Status() takes precedence. Only values in the range 400-599 are used; anything else is
// ignored (not clamped) and the status falls back to the status the response already carried, or 500.
//
// The [*Error] type created with [NewError] implements StatusCode() and can carry headers:
//
//	return bfinal.NewError(bfinal.CodeTooManyRequests, err).WithHeader("Retry-After", "5")
//
// Headers of an error are only sent when the error's own status was used.
//
// # Representations
//
// By default the body is a small HTML document with the message in a <pre> element. Setting
// [Config.DefaultContentType] to "text/plain" selects plain text, and [Config.ContentTypeNegotiation]
// picks between the two using the Accept header. Every error response carries
// X-Content-Type-Options and Content-Security-Policy headers and drops Content-Encoding,
// Content-Language and Content-Range headers set earlier.
//
// # Buffered Response Writer
//
// The [ResponseWriter] interface extends http.ResponseWriter with buffering. All writes are held in
// memory until explicitly flushed or until the handler returns. As long as nothing was flushed the
// responder can replace the response entirely. Once the handler flushed, the response head is out and
// a failure can only be signaled by closing the connection.
//
// # ServeMux
//
// [ServeMux] wires everything together. Handlers return errors, and errors end up at the responder:
//
//	mux := bfinal.NewServeMux()
//	mux.HandleFunc("GET /items/{id}", func(ctx context.Context, w bfinal.ResponseWriter, r *http.Request) error {
//	    item, err := db.GetItem(r.PathValue("id"))
//	    if err != nil {
//	        return bfinal.NewError(bfinal.CodeNotFound, err)
//	    }
//	    return json.NewEncoder(w).Encode(item)
//	})
//
// Requests that match no pattern are finalized without an error and receive a 404 that names the
// method and path ("Cannot GET /nope"). A path that only matches under other methods gets a 405
// with an Allow header.
//
// # Standard library handlers and error ownership
//
// Handlers registered with [ServeMux.HandleStd] or [ServeMux.MountStd] write their own error
// responses and never return an error, so the responder is only involved when middleware around them
// fails.
//
// # Error Observer
//
// [Config.OnError] is scheduled for every error after the response was written, also when the
// connection had to be closed. It runs on its own goroutine and gets a [*FinishedResponse] in place
// of the live writer, so reading its headers never races the server.
package bfinal
