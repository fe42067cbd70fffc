// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// frames.go provides a Valkey-backed cache of generated comic frames.
// A frame that was generated during a run that later failed is kept here,
// so retrying the same story does not pay for the image again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// frameKeyPrefix is the Valkey key prefix for cached frame URLs.
	frameKeyPrefix = "comic:frame:"

	// DefaultFrameTTL is how long a generated frame URL stays reusable.
	DefaultFrameTTL = 24 * time.Hour
)

// FrameCache maps (owner, generation parameters) to an image URL.
type FrameCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFrameCache creates a new frame cache backed by the given Valkey client.
func NewFrameCache(client *redis.Client, ttl time.Duration) *FrameCache {
	if ttl == 0 {
		ttl = DefaultFrameTTL
	}
	return &FrameCache{client: client, ttl: ttl}
}

// FrameKey returns the cache key for one frame. The generation parameters
// are hashed so prompts of any length produce a fixed-size key.
func FrameKey(owner, prompt, model, style, ratio string) string {
	h := sha256.New()
	for _, part := range []string{prompt, model, style, ratio} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return owner + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached URL for key. Errors are logged and reported as a
// miss.
func (fc *FrameCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := fc.client.Get(ctx, frameKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("frame cache get error", "key", key, "error", err)
		return "", false
	}
	slog.Debug("frame cache hit", "key", key)
	return val, true
}

// Set stores a generated frame URL with the configured TTL.
func (fc *FrameCache) Set(ctx context.Context, key, url string) {
	if err := fc.client.Set(ctx, frameKeyPrefix+key, url, fc.ttl).Err(); err != nil {
		slog.Warn("frame cache set error", "key", key, "error", err)
	}
}

// Forget removes frames once they are persisted in a comic.
func (fc *FrameCache) Forget(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = frameKeyPrefix + k
	}
	if err := fc.client.Del(ctx, full...).Err(); err != nil {
		slog.Warn("frame cache delete error", "count", len(keys), "error", err)
	}
}
