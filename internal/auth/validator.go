package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/store"
)

// CacheTTL is how long a successfully validated key is trusted without a
// store lookup. Deactivating a key in the store does not purge live cache
// entries; callers may pass validation until their entry expires.
const CacheTTL = 1 * time.Hour

// KeyStore is the slice of the persistence layer the validator needs.
type KeyStore interface {
	GetActiveKeyByHash(ctx context.Context, hash string) (*model.APIKey, error)
}

// Validator checks presented API keys against the store, with a process-local
// TTL cache in front. The cache maps raw keys to expiry times; entries are
// evicted lazily on lookup. Safe for concurrent use; distinct keys never
// contend.
type Validator struct {
	store  KeyStore
	salt   string
	logger *slog.Logger

	cache sync.Map // rawKey -> time.Time (expiry)

	// now is swappable for tests.
	now func() time.Time
}

// NewValidator creates a Validator. The salt is appended to raw keys before
// hashing and must match the salt used at key-generation time.
func NewValidator(store KeyStore, salt string, logger *slog.Logger) *Validator {
	return &Validator{
		store:  store,
		salt:   salt,
		logger: logger,
		now:    time.Now,
	}
}

// Validate reports whether rawKey is a known, active API key. It fails
// closed: empty keys and storage errors both report invalid. A successful
// store lookup populates the cache for CacheTTL.
func (v *Validator) Validate(ctx context.Context, rawKey string) bool {
	if rawKey == "" {
		return false
	}

	if exp, ok := v.cache.Load(rawKey); ok {
		if v.now().Before(exp.(time.Time)) {
			return true
		}
		v.cache.Delete(rawKey)
	}

	_, err := v.store.GetActiveKeyByHash(ctx, v.Hash(rawKey))
	if err != nil {
		// Unknown and inactive keys are a normal miss; anything else is a
		// storage failure, which also fails closed.
		if !errors.Is(err, store.ErrNotFound) {
			v.logger.Warn("api key validation failed", "error", err)
		}
		return false
	}

	v.cache.Store(rawKey, v.now().Add(CacheTTL))
	return true
}

// Hash returns the hex-encoded SHA-256 of rawKey with the configured salt
// appended. Output is always 64 lowercase hex characters.
func (v *Validator) Hash(rawKey string) string {
	return HashKey(rawKey, v.salt)
}

// HashKey hashes a raw key with an explicit salt, for callers minting keys
// outside a validator.
func HashKey(rawKey, salt string) string {
	h := sha256.Sum256([]byte(rawKey + salt))
	return hex.EncodeToString(h[:])
}

// CacheLen returns the number of live cache entries, expired or not.
// Intended for tests and diagnostics.
func (v *Validator) CacheLen() int {
	n := 0
	v.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
