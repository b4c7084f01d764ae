package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2023-06-01-preview"

// AzureConfig holds the connection settings for the Azure OpenAI completions
// deployment.
type AzureConfig struct {
	Endpoint   string
	Key        string
	Deployment string
	Timeout    time.Duration
	MaxTokens  int
}

// Configured reports whether all required Azure settings are present.
func (c AzureConfig) Configured() bool {
	return c.Endpoint != "" && c.Key != "" && c.Deployment != ""
}

// AzureProvider calls an Azure OpenAI completions deployment.
type AzureProvider struct {
	cfg    AzureConfig
	client *http.Client
}

// NewAzure creates an AzureProvider. Timeout defaults to 15s and MaxTokens
// to 200 when unset.
func NewAzure(cfg AzureConfig) *AzureProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	return &AzureProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Provider.
func (p *AzureProvider) Name() string { return "azure" }

type azureRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type azureResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete implements Provider. The request is bounded by both ctx and the
// configured timeout; a timeout surfaces as an error, never a hang.
func (p *AzureProvider) Complete(ctx context.Context, prompt string) (*Completion, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/completions?api-version=%s",
		strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Deployment, apiVersion)

	body, err := json.Marshal(azureRequest{Prompt: prompt, MaxTokens: p.cfg.MaxTokens})
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("api-key", p.cfg.Key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion call: upstream returned %s", resp.Status)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}

	// Re-decode the choices out of the raw map so the raw body can be echoed
	// back verbatim in the result field.
	var parsed azureResponse
	rawBytes, _ := json.Marshal(raw)
	if err := json.Unmarshal(rawBytes, &parsed); err != nil {
		return nil, fmt.Errorf("decode completion choices: %w", err)
	}

	text := ""
	if len(parsed.Choices) > 0 {
		text = strings.TrimSpace(parsed.Choices[0].Text)
	}

	return &Completion{Text: text, Raw: raw}, nil
}
