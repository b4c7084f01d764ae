package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/gate"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/ratelimit"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/store"
)

func newGate(t *testing.T, limit int, window time.Duration) (*gate.Gate, string) {
	t.Helper()
	st, err := store.New("")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := auth.NewValidator(st, "test-salt", logger)

	rawKey, err := auth.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	key := &model.APIKey{
		KeyHash:   validator.Hash(rawKey),
		KeyPrefix: auth.KeyPrefix(rawKey),
		Active:    true,
	}
	if err := st.CreateAPIKey(context.Background(), key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	return gate.New(validator, ratelimit.New(limit, window)), rawKey
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGateAdmitsValidKey(t *testing.T) {
	g, rawKey := newGate(t, 5, time.Minute)
	h := Gate(g)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGateMissingHeader(t *testing.T) {
	g, _ := newGate(t, 5, time.Minute)
	h := Gate(g)(okHandler())

	for _, header := range []string{"", "Basic abc", "bearer lowercase", "Bearertoken"} {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("header %q: invalid JSON body: %v", header, err)
		}
		if body["error"] != "Missing or invalid Authorization header" {
			t.Fatalf("header %q: error = %q", header, body["error"])
		}
	}
}

func TestGateUnknownKey(t *testing.T) {
	g, _ := newGate(t, 5, time.Minute)
	h := Gate(g)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Invalid API key" {
		t.Fatalf("error = %q", body["error"])
	}
}

func TestGateRateLimited(t *testing.T) {
	g, rawKey := newGate(t, 2, time.Hour)
	h := Gate(g)(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Rate limit exceeded" {
		t.Fatalf("error = %q", body["error"])
	}
	if body["details"] != "Max 2 requests per 3600 seconds" {
		t.Fatalf("details = %q", body["details"])
	}
}

func TestGateInvalidKeySpendsNoBudget(t *testing.T) {
	g, rawKey := newGate(t, 3, time.Hour)
	h := Gate(g)(okHandler())

	// Hammer with a bogus key first; the real key's budget must be intact.
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("bogus attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set("Authorization", "Bearer "+rawKey)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("valid request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

func TestGateAttachesKeyToContext(t *testing.T) {
	g, rawKey := newGate(t, 5, time.Minute)

	var seen string
	h := Gate(g)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAPIKey(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != rawKey {
		t.Fatalf("GetAPIKey = %q, want the raw key", seen)
	}
}

func TestRequireAdmin(t *testing.T) {
	a := auth.NewAdminAuth("admin-secret")
	h := RequireAdmin(a)(okHandler())

	token, err := a.IssueToken("admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200", rec.Code)
	}

	for name, header := range map[string]string{
		"missing": "",
		"garbage": "Bearer not-a-jwt",
		"wrong scheme": "Basic abc",
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin/keys", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	var fromCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	echoed := rec.Header().Get("X-Request-ID")
	if echoed == "" {
		t.Fatal("no X-Request-ID on response")
	}
	if fromCtx != echoed {
		t.Fatalf("context ID %q != header ID %q", fromCtx, echoed)
	}

	// Client-supplied IDs pass through untouched.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-chosen")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-chosen" {
		t.Fatalf("X-Request-ID = %q, want client-chosen", got)
	}
}

func TestLoggerPreservesResponse(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
