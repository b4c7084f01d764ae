package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// ThrottleByIP limits unauthenticated endpoints (key generation in
// particular) by client IP. This is separate from the per-key limiter that
// protects the gated surface.
func ThrottleByIP(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}
