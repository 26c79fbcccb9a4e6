// Package httpmiddleware provides net/http middleware used by the cart
// server: panic recovery, request IDs, CORS for the browser UI, and
// request logging.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to handler so that the first middleware in the
// list is the outermost one at request time.
func Wrap(handler http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
