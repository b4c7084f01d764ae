package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMockReplyShort(t *testing.T) {
	p := NewMock()

	c, err := p.Complete(context.Background(), "Hello?")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	want := "MOCK-ASSISTANT: I received your prompt (6 chars). Summary: Hello?"
	if c.Text != want {
		t.Errorf("reply = %q, want %q", c.Text, want)
	}
	if c.Raw != nil {
		t.Error("mock completion should have nil Raw")
	}
}

func TestMockReplyTruncated(t *testing.T) {
	p := NewMock()
	prompt := strings.Repeat("x", 150)

	c, err := p.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.HasPrefix(c.Text, "MOCK-ASSISTANT: I received your prompt (150 chars). Summary: ") {
		t.Errorf("unexpected prefix: %q", c.Text)
	}
	if !strings.HasSuffix(c.Text, strings.Repeat("x", 140)+"...") {
		t.Errorf("expected 140-char summary with ellipsis, got %q", c.Text)
	}
}

func TestMockReplyExactBoundary(t *testing.T) {
	p := NewMock()
	prompt := strings.Repeat("y", 140)

	c, err := p.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if strings.HasSuffix(c.Text, "...") {
		t.Error("140-char prompt must not be marked truncated")
	}
}

func TestMockDeterministic(t *testing.T) {
	p := NewMock()

	a, _ := p.Complete(context.Background(), "same prompt")
	b, _ := p.Complete(context.Background(), "same prompt")
	if a.Text != b.Text {
		t.Errorf("mock replies differ: %q vs %q", a.Text, b.Text)
	}
}

func TestAzureConfigured(t *testing.T) {
	full := AzureConfig{Endpoint: "https://x", Key: "k", Deployment: "d"}
	if !full.Configured() {
		t.Error("fully populated config reported unconfigured")
	}

	partials := []AzureConfig{
		{Key: "k", Deployment: "d"},
		{Endpoint: "https://x", Deployment: "d"},
		{Endpoint: "https://x", Key: "k"},
		{},
	}
	for i, cfg := range partials {
		if cfg.Configured() {
			t.Errorf("partial config %d reported configured", i)
		}
	}
}

func TestAzureComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody azureRequest

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"choices": []map[string]any{{"text": "  the reply  "}},
		})
	}))
	defer ts.Close()

	p := NewAzure(AzureConfig{
		Endpoint:   ts.URL,
		Key:        "secret-key",
		Deployment: "gpt-35",
	})

	c, err := p.Complete(context.Background(), "what is up")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Text != "the reply" {
		t.Errorf("Text = %q, want %q (trimmed)", c.Text, "the reply")
	}
	if c.Raw == nil {
		t.Error("expected raw upstream body")
	}

	if gotPath != "/openai/deployments/gpt-35/completions?api-version=2023-06-01-preview" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("api-key header = %q", gotKey)
	}
	if gotBody.Prompt != "what is up" || gotBody.MaxTokens != 200 {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestAzureCompleteUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	p := NewAzure(AzureConfig{Endpoint: ts.URL, Key: "k", Deployment: "d"})

	if _, err := p.Complete(context.Background(), "hi"); err == nil {
		t.Error("expected error for non-2xx upstream response")
	}
}

func TestAzureCompleteTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	p := NewAzure(AzureConfig{
		Endpoint:   ts.URL,
		Key:        "k",
		Deployment: "d",
		Timeout:    20 * time.Millisecond,
	})

	start := time.Now()
	_, err := p.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v, should be bounded by configured timeout", elapsed)
	}
}

func TestAzureCompleteEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer ts.Close()

	p := NewAzure(AzureConfig{Endpoint: ts.URL, Key: "k", Deployment: "d"})

	c, err := p.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Text != "" {
		t.Errorf("Text = %q, want empty for empty choices", c.Text)
	}
}
