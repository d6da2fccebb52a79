package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// HashedCache is a content-addressed view over a Cache backend. Keys are
// derived by hashing an arbitrary key value, which bounds key length and keeps
// request content out of the key space. Hashing goes through canonical JSON
// (encoding/json sorts map keys), so logically-equal inputs always produce the
// same key regardless of how the caller assembled them.
type HashedCache struct {
	backend   Cache
	keyPrefix string
	ttl       time.Duration
}

// NewHashedCache creates a HashedCache with a fixed key prefix and entry TTL.
func NewHashedCache(backend Cache, keyPrefix string, ttl time.Duration) *HashedCache {
	return &HashedCache{
		backend:   backend,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// HashKey derives the storage key for an arbitrary key value.
func (h *HashedCache) HashKey(keyData interface{}) (string, error) {
	data, err := json.Marshal(keyData)
	if err != nil {
		return "", fmt.Errorf("failed to serialize cache key data: %w", err)
	}
	sum := md5.Sum(data)
	return h.keyPrefix + hex.EncodeToString(sum[:]), nil
}

// ContainsHashedValue reports whether a value is cached under the derived key.
func (h *HashedCache) ContainsHashedValue(ctx context.Context, keyData interface{}) (bool, error) {
	key, err := h.HashKey(keyData)
	if err != nil {
		return false, err
	}
	return h.Contains(ctx, key)
}

// ReadHashedValue retrieves the value cached under the derived key.
func (h *HashedCache) ReadHashedValue(ctx context.Context, keyData interface{}) ([]byte, error) {
	key, err := h.HashKey(keyData)
	if err != nil {
		return nil, err
	}
	return h.Read(ctx, key)
}

// SetWithHashedKey stores a value under the derived key.
func (h *HashedCache) SetWithHashedKey(ctx context.Context, keyData interface{}, value []byte) error {
	key, err := h.HashKey(keyData)
	if err != nil {
		return err
	}
	return h.Set(ctx, key, value)
}

// DeleteHashedValue removes the value cached under the derived key.
func (h *HashedCache) DeleteHashedValue(ctx context.Context, keyData interface{}) error {
	key, err := h.HashKey(keyData)
	if err != nil {
		return err
	}
	return h.Delete(ctx, key)
}

// Contains reports whether a plain key is present.
func (h *HashedCache) Contains(ctx context.Context, key string) (bool, error) {
	return h.backend.Exists(ctx, key)
}

// Read retrieves the value for a plain key.
func (h *HashedCache) Read(ctx context.Context, key string) ([]byte, error) {
	return h.backend.Get(ctx, key)
}

// Set stores a value under a plain key with the configured TTL.
func (h *HashedCache) Set(ctx context.Context, key string, value []byte) error {
	return h.backend.Set(ctx, key, value, h.ttl)
}

// Delete removes a plain key.
func (h *HashedCache) Delete(ctx context.Context, key string) error {
	return h.backend.Delete(ctx, key)
}
