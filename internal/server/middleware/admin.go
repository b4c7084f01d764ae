package middleware

import (
	"net/http"
	"strings"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
)

// RequireAdmin gates key-management endpoints behind a signed admin token.
// Tokens are minted out of band with `chatbot admin token`.
func RequireAdmin(a *auth.AdminAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeGateError(w, http.StatusUnauthorized, model.ErrorResponse{
					Error: "Missing or invalid Authorization header",
				})
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if _, err := a.VerifyToken(token); err != nil {
				writeGateError(w, http.StatusUnauthorized, model.ErrorResponse{
					Error: "Invalid admin token",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
