package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache stores completed translation results keyed by content fingerprint.
// Once a translation exists for a fingerprint, re-running the request must
// be served from here without touching the completion provider.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory builds a Cache from a Config.
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache registers a cache implementation under a name.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache creates a cache of the configured type, falling back to the
// in-memory implementation for unknown types.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config holds cache construction settings.
type Config struct {
	Type            string        // "memory" or "redis"
	RedisAddr       string        // redis only
	RedisPassword   string        // redis only
	RedisDB         int           // redis only
	DefaultTTL      time.Duration // expiry applied when Set is called with ttl 0
	CleanupInterval time.Duration // memory only
}

// DefaultConfig returns the default cache settings.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// ResultKey builds the cache key for a completed translation. The
// fingerprint covers the exact upload bytes plus the split count and model
// choice, so changing any of them invalidates the entry implicitly.
func ResultKey(fileBytes []byte, numParts int, model string) string {
	h := sha256.New()
	h.Write(fileBytes)
	fmt.Fprintf(h, "|%d|%s", numParts, model)
	return "translation:" + hex.EncodeToString(h.Sum(nil))
}
