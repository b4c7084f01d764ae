// Package chat orchestrates a single chat turn: prompt validation, message
// persistence, the completion call, and reply persistence.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/completion"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
)

const (
	// MaxPromptChars is the longest accepted prompt.
	MaxPromptChars = 2000
	// HistoryLimit caps how many messages a history read returns.
	HistoryLimit = 50
	// DefaultSessionID is used when the caller supplies no session header.
	// Session identity is caller-controlled and not bound to the API key, so
	// every caller omitting the header shares this one session.
	DefaultSessionID = "default"
)

// ValidationError reports a rejected prompt. The reason string is shown to
// the caller verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// UpstreamError reports a failed or timed-out completion call. By the time
// it surfaces, the user message has already been persisted; there is no
// compensating rollback.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

// ConversationStore is the slice of the persistence layer the orchestrator
// needs.
type ConversationStore interface {
	EnsureSession(ctx context.Context, sessionID string, userID *string) error
	AppendMessage(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
}

// Service runs chat turns against a single completion provider chosen at
// startup. Storage failures degrade rather than fail: writes are best-effort
// and logged, reads fall back to empty history.
type Service struct {
	store    ConversationStore
	provider completion.Provider
	logger   *slog.Logger
}

// New creates a chat Service.
func New(store ConversationStore, provider completion.Provider, logger *slog.Logger) *Service {
	return &Service{store: store, provider: provider, logger: logger}
}

// ValidatePrompt trims prompt and enforces the length rules. Returns the
// trimmed prompt, or a ValidationError naming the rejection reason.
func ValidatePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", &ValidationError{Reason: "Prompt cannot be empty"}
	}
	if utf8.RuneCountInString(prompt) > MaxPromptChars {
		return "", &ValidationError{Reason: fmt.Sprintf("Prompt too long (max %d characters)", MaxPromptChars)}
	}
	return trimmed, nil
}

// Chat runs one turn: validate, persist the user message, complete, persist
// the reply. On upstream failure the user message stays persisted and an
// UpstreamError is returned.
func (s *Service) Chat(ctx context.Context, sessionID, prompt string) (*model.ChatResponse, error) {
	validated, err := ValidatePrompt(prompt)
	if err != nil {
		return nil, err
	}

	if err := s.store.EnsureSession(ctx, sessionID, nil); err != nil {
		s.logger.Warn("session creation failed", "session_id", sessionID, "error", err)
	}
	if err := s.store.AppendMessage(ctx, sessionID, model.RoleUser, validated); err != nil {
		s.logger.Warn("user message not persisted", "session_id", sessionID, "error", err)
	}

	reply, err := s.provider.Complete(ctx, validated)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	if err := s.store.AppendMessage(ctx, sessionID, model.RoleAssistant, reply.Text); err != nil {
		s.logger.Warn("assistant message not persisted", "session_id", sessionID, "error", err)
	}

	return &model.ChatResponse{
		From:      s.provider.Name(),
		SessionID: sessionID,
		Response:  reply.Text,
		Result:    reply.Raw,
	}, nil
}

// History returns up to HistoryLimit messages for a session, oldest first.
// Storage failures are logged and surface as an empty history, never an
// error; reads fail open.
func (s *Service) History(ctx context.Context, sessionID string) *model.HistoryResponse {
	msgs, err := s.store.History(ctx, sessionID, HistoryLimit)
	if err != nil {
		s.logger.Warn("history read failed", "session_id", sessionID, "error", err)
		msgs = nil
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return &model.HistoryResponse{
		SessionID:     sessionID,
		History:       msgs,
		TotalMessages: len(msgs),
	}
}

// ProviderName returns the active provider's name.
func (s *Service) ProviderName() string { return s.provider.Name() }
