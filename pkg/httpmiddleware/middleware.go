// Package httpmiddleware provides the HTTP middleware stack: panic recovery,
// CORS, rate limiting, request identity, and request logging.
package httpmiddleware

import "net/http"

// Middleware decorates an http.Handler.
type Middleware = func(http.Handler) http.Handler

// Wrap applies middlewares to h so that the first middleware in the list is
// the outermost one.
func Wrap(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
