// Package completion abstracts the upstream language-model completion call
// behind a Provider strategy. The remote (Azure) and local (mock) providers
// are interchangeable; the choice is made once at startup from configuration,
// never per request.
package completion

import "context"

// Completion is one assistant reply.
type Completion struct {
	// Text is the trimmed assistant reply.
	Text string
	// Raw is the decoded upstream response body, for callers that echo it
	// back to clients. Nil for the local provider.
	Raw any
}

// Provider produces a completion for a validated prompt.
type Provider interface {
	// Name identifies the provider in responses ("azure" or "local").
	Name() string
	// Complete returns the assistant reply for prompt. The call is bounded
	// by the context and the provider's own timeout.
	Complete(ctx context.Context, prompt string) (*Completion, error)
}
