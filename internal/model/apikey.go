package model

import "time"

// APIKey represents a user credential for the chat API. The raw key is never
// stored; only a salted SHA-256 hash and a short prefix for identification
// are persisted.
type APIKey struct {
	ID        int64     `json:"id" db:"id"`
	KeyHash   string    `json:"-" db:"api_key"` // salted SHA-256 hash, never expose
	KeyPrefix string    `json:"key_prefix" db:"key_prefix"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
