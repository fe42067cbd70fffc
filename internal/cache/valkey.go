// Package cache provides the Valkey (Redis-compatible) client, the comic
// frame cache and the shared fixed-window request counter.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// Startup ping schedule, matching the database's.
const (
	pingAttempts = 6
	pingBase     = 500 * time.Millisecond
	pingCap      = 5 * time.Second
)

// Connect creates a Valkey client for addr (host:port) and pings it with
// exponential backoff until it answers, the attempts run out, or ctx ends.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 3 * time.Second,
	})

	backoff := retry.WithMaxRetries(pingAttempts-1,
		retry.WithCappedDuration(pingCap, retry.NewExponential(pingBase)))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("valkey not ready", "addr", addr, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping: %w", err)
	}

	slog.Info("valkey connected", "addr", addr, "attempts", attempt)
	return client, nil
}
