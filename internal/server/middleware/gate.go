package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/gate"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
)

type contextKeyAPIKey string

// APIKeyContextKey is the context key under which the validated raw API key
// is stored for downstream handlers.
const APIKeyContextKey contextKeyAPIKey = "api_key"

// Gate returns an HTTP middleware enforcing bearer-key authentication and
// per-key rate limiting, in that order. An invalid key never consumes a
// rate-limit slot.
//
// Failure modes:
//   - missing or malformed Authorization header → 401
//   - unknown or inactive key → 401, same generic message (no detail leak)
//   - over the per-key limit → 429 with the limit and window disclosed
func Gate(g *gate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeGateError(w, http.StatusUnauthorized, model.ErrorResponse{
					Error: "Missing or invalid Authorization header",
				})
				return
			}
			rawKey := strings.TrimPrefix(authHeader, "Bearer ")

			switch g.Authorize(r.Context(), rawKey, rawKey) {
			case gate.Unauthenticated:
				writeGateError(w, http.StatusUnauthorized, model.ErrorResponse{
					Error: "Invalid API key",
				})
				return
			case gate.RateLimited:
				writeGateError(w, http.StatusTooManyRequests, model.ErrorResponse{
					Error: "Rate limit exceeded",
					Details: fmt.Sprintf("Max %d requests per %d seconds",
						g.Limit(), int(g.Window().Seconds())),
				})
				return
			}

			ctx := context.WithValue(r.Context(), APIKeyContextKey, rawKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey extracts the validated raw API key from the context. Returns an
// empty string for ungated requests.
func GetAPIKey(ctx context.Context) string {
	if key, ok := ctx.Value(APIKeyContextKey).(string); ok {
		return key
	}
	return ""
}

func writeGateError(w http.ResponseWriter, status int, resp model.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
