package model

// ErrorResponse is the flat JSON error envelope returned by all endpoints.
// Details carries human-readable context (e.g. the rate-limit window) and
// Detail carries upstream error text for operator diagnosis; both are
// optional.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// ChatResponse is the payload for a successful POST /chat.
// From is "azure" for real completions and "local" for mock replies. Result
// holds the raw upstream response body and is omitted in local mode.
type ChatResponse struct {
	From      string `json:"from"`
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Result    any    `json:"result,omitempty"`
}

// HistoryResponse is the payload for GET /history.
type HistoryResponse struct {
	SessionID     string    `json:"session_id"`
	History       []Message `json:"history"`
	TotalMessages int       `json:"total_messages"`
}

// GeneratedKeyResponse is returned once, at key creation time. The raw key
// cannot be retrieved again.
type GeneratedKeyResponse struct {
	APIKey  string `json:"api_key"`
	Message string `json:"message"`
	Usage   string `json:"usage"`
}

// HealthResponse reports process liveness and completion-provider wiring.
type HealthResponse struct {
	Status          string `json:"status"`
	LocalMode       bool   `json:"local_mode"`
	AzureConfigured bool   `json:"azure_configured"`
}
