package handler

import (
	"errors"
	"net/http"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/chat"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
)

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	svc *chat.Service
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// Chat runs one chat turn.
// POST /chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid JSON body"})
		return
	}

	resp, err := h.svc.Chat(r.Context(), sessionID(r), req.Prompt)
	if err != nil {
		var vErr *chat.ValidationError
		if errors.As(err, &vErr) {
			writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: vErr.Reason})
			return
		}
		var uErr *chat.UpstreamError
		if errors.As(err, &uErr) {
			// The user message is already persisted at this point; the
			// upstream error text is surfaced for operator diagnosis.
			writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
				Error:  "azure_call_failed",
				Detail: uErr.Err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Internal error"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// History returns the persisted conversation for a session, oldest first.
// GET /history
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.History(r.Context(), sessionID(r)))
}
