package completion

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// summaryLen is how many characters of the prompt the mock reply echoes back.
const summaryLen = 140

// MockProvider is the local fallback used when Azure is unconfigured or
// local mode is forced. Replies are deterministic functions of the prompt.
type MockProvider struct{}

// NewMock creates a MockProvider.
func NewMock() *MockProvider { return &MockProvider{} }

// Name implements Provider.
func (*MockProvider) Name() string { return "local" }

// Complete implements Provider. The reply format is part of the service's
// wire contract:
//
//	MOCK-ASSISTANT: I received your prompt (N chars). Summary: <prefix>[...]
func (*MockProvider) Complete(_ context.Context, prompt string) (*Completion, error) {
	summary := prompt
	suffix := ""
	if utf8.RuneCountInString(prompt) > summaryLen {
		summary = string([]rune(prompt)[:summaryLen])
		suffix = "..."
	}
	text := fmt.Sprintf("MOCK-ASSISTANT: I received your prompt (%d chars). Summary: %s%s",
		utf8.RuneCountInString(prompt), summary, suffix)
	return &Completion{Text: text}, nil
}
