package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/store"
)

// KeyHandler serves API key generation and the admin key-management surface.
type KeyHandler struct {
	store     *store.Store
	validator *auth.Validator
	logger    *slog.Logger
}

// NewKeyHandler creates a KeyHandler. The validator supplies the salted hash
// so generated keys verify against the same scheme the gate uses.
func NewKeyHandler(st *store.Store, validator *auth.Validator, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{store: st, validator: validator, logger: logger}
}

// Generate mints a new API key, stores its salted hash, and returns the raw
// key exactly once.
// POST /auth/generate-key
func (h *KeyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	rawKey, err := auth.GenerateKey()
	if err != nil {
		h.logger.Error("key generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Key generation failed"})
		return
	}

	key := &model.APIKey{
		KeyHash:   h.validator.Hash(rawKey),
		KeyPrefix: auth.KeyPrefix(rawKey),
		Active:    true,
	}
	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		h.logger.Error("key persistence failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Key generation failed"})
		return
	}

	writeJSON(w, http.StatusCreated, model.GeneratedKeyResponse{
		APIKey:  rawKey,
		Message: "Store this key securely. Use it in Authorization header.",
		Usage:   "Authorization: Bearer <api_key>",
	})
}

// List returns all key records (prefixes only, never hashes).
// GET /admin/keys
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		h.logger.Error("key listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Key listing failed"})
		return
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"total": len(keys),
	})
}

// Revoke deactivates a key by ID. Cached validations of the key may succeed
// for up to the cache TTL afterwards.
// DELETE /admin/keys/{keyID}
func (h *KeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "keyID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid key id"})
		return
	}

	if err := h.store.DeactivateAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "Key not found"})
			return
		}
		h.logger.Error("key revocation failed", "key_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{Error: "Key revocation failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
