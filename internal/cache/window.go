package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inkpress/internal/middleware"
)

const windowKeyPrefix = "ratelimit:"

// FixedWindow counts hits per key in fixed time windows shared by every
// process talking to the same Valkey.
type FixedWindow struct {
	client *redis.Client
	name   string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindow allows limit hits per key in each window. name separates
// counters of different limits.
func NewFixedWindow(client *redis.Client, name string, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{client: client, name: name, limit: limit, window: window, now: time.Now}
}

// Allow records a hit for key. Denied hits still count, so a client
// hammering a closed window does not get a head start on the next one.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (middleware.Decision, error) {
	now := fw.now()
	bucket := now.UnixNano() / int64(fw.window)
	k := fmt.Sprintf("%s%s:%s:%d", windowKeyPrefix, fw.name, key, bucket)

	pipe := fw.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, fw.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return middleware.Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	if incr.Val() <= int64(fw.limit) {
		return middleware.Decision{Allowed: true}, nil
	}
	end := time.Unix(0, (bucket+1)*int64(fw.window))
	return middleware.Decision{RetryAfter: end.Sub(now)}, nil
}
