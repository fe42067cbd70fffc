// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{frameKeyPrefix + "*", windowKeyPrefix + "*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	addr := envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379")
	client, err := Connect(ctx, addr, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	if pong, err := client.Ping(ctx).Result(); err != nil || pong != "PONG" {
		t.Errorf("Ping: got %q, %v", pong, err)
	}
}

func TestConnectGivesUpWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if _, err := Connect(ctx, "127.0.0.1:1", ""); err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect kept retrying for %v after the context ended", elapsed)
	}
}

func TestFrameKey(t *testing.T) {
	a := FrameKey("u1", "漫画风格，猫", "jimeng-v1.4", "anime", "16:9")
	if a != FrameKey("u1", "漫画风格，猫", "jimeng-v1.4", "anime", "16:9") {
		t.Error("FrameKey must be deterministic")
	}

	others := []string{
		FrameKey("u2", "漫画风格，猫", "jimeng-v1.4", "anime", "16:9"),
		FrameKey("u1", "漫画风格，狗", "jimeng-v1.4", "anime", "16:9"),
		FrameKey("u1", "漫画风格，猫", "jimeng-v1.4", "ink", "16:9"),
		FrameKey("u1", "漫画风格，猫", "jimeng-v1.4", "anime", "1:1"),
		// Field boundaries matter: "ab"+"c" must differ from "a"+"bc".
		FrameKey("u1", "漫画风格，猫", "jimeng-v1.4a", "nime", "16:9"),
	}
	for i, o := range others {
		if o == a {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}

func TestNewFrameCacheDefaultTTL(t *testing.T) {
	fc := NewFrameCache(nil, 0)
	if fc.ttl != DefaultFrameTTL {
		t.Errorf("ttl: got %v, want %v", fc.ttl, DefaultFrameTTL)
	}
}

func TestFrameCacheSetGetForget(t *testing.T) {
	client := testValkeyClient(t)
	fc := NewFrameCache(client, time.Minute)
	ctx := context.Background()

	key := FrameKey(uuid.NewString(), "p", "m", "s", "r")

	// Miss.
	if _, ok := fc.Get(ctx, key); ok {
		t.Error("expected cache miss")
	}

	fc.Set(ctx, key, "https://img.example.com/1.png")
	url, ok := fc.Get(ctx, key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if url != "https://img.example.com/1.png" {
		t.Errorf("url: got %q", url)
	}

	ttl := client.TTL(ctx, frameKeyPrefix+key).Val()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl: got %v, want within 1m", ttl)
	}

	fc.Forget(ctx, key)
	if _, ok := fc.Get(ctx, key); ok {
		t.Error("expected miss after Forget")
	}
}

func TestFixedWindowAllow(t *testing.T) {
	client := testValkeyClient(t)
	fw := NewFixedWindow(client, "test", 3, time.Hour)
	// 20 minutes into an hour bucket.
	fw.now = func() time.Time { return time.Date(2026, 3, 1, 12, 20, 0, 0, time.UTC) }
	ctx := context.Background()
	key := uuid.NewString()

	for i := 1; i <= 3; i++ {
		d, err := fw.Allow(ctx, key)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !d.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
	}

	d, err := fw.Allow(ctx, key)
	if err != nil {
		t.Fatalf("Allow #4: %v", err)
	}
	if d.Allowed {
		t.Error("4th hit should be rejected")
	}
	if d.RetryAfter != 40*time.Minute {
		t.Errorf("RetryAfter: got %v, want the rest of the window", d.RetryAfter)
	}

	// Other keys have their own counter.
	if d, _ := fw.Allow(ctx, key+"-other"); !d.Allowed {
		t.Error("separate key should be allowed")
	}
}
