// Package gate composes API key validation and per-key rate limiting ahead
// of every protected operation.
package gate

import (
	"context"
	"time"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/ratelimit"
)

// Result is the outcome of an authorization check.
type Result int

const (
	// Admitted means the key is valid and within its rate limit.
	Admitted Result = iota
	// Unauthenticated covers missing, malformed, unknown, and inactive keys
	// alike; callers must not be able to tell which.
	Unauthenticated
	// RateLimited means the key is valid but over its request budget.
	RateLimited
)

// Gate authorizes requests: authentication first, then rate limiting, so an
// invalid key never consumes a rate-limit slot. The Gate holds no state of
// its own.
type Gate struct {
	validator *auth.Validator
	limiter   *ratelimit.Limiter
}

// New creates a Gate over the given validator and limiter.
func New(validator *auth.Validator, limiter *ratelimit.Limiter) *Gate {
	return &Gate{validator: validator, limiter: limiter}
}

// Authorize checks rawKey and, only if it is valid, records one request for
// identifier against the rate limit.
func (g *Gate) Authorize(ctx context.Context, rawKey, identifier string) Result {
	if !g.validator.Validate(ctx, rawKey) {
		return Unauthenticated
	}
	if !g.limiter.Admit(identifier) {
		return RateLimited
	}
	return Admitted
}

// Limit returns the limiter's request capacity, for client-visible messaging
// on RateLimited results.
func (g *Gate) Limit() int { return g.limiter.Limit() }

// Window returns the limiter's window, for client-visible messaging.
func (g *Gate) Window() time.Duration { return g.limiter.Window() }
