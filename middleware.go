package bfinal

// Middleware for cross-cutting concerns with buffered responses. Errors returned by the chain end up
// at the [Responder].
type Middleware func(BareHandler) BareHandler

// Wrap turns the leaf handler h into a bare handler wrapped by m. See [WrapBare] for the order.
func Wrap(h Handler, m ...Middleware) BareHandler {
	return WrapBare(ToBare(h), m...)
}

// WrapBare wraps h with m so that m[0] is the outer most layer and runs first, the order used by
// Gorilla and Chi.
func WrapBare(h BareHandler, m ...Middleware) BareHandler {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}

	return h
}
