package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts inbound chat events in clock-aligned windows shared by
// every bot replica. Each window has its own key, so a lost EXPIRE cannot
// keep a chat throttled past the next window.
type RateLimiter struct {
	client RedisClient
	now    func() time.Time
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow reports whether one more event fits under limit for key in the
// current window. A non-positive limit disables limiting.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	if window <= 0 {
		window = time.Minute
	}
	bucket := windowKey(key, r.now(), window)

	count, err := r.client.Incr(ctx, bucket)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, bucket, 2*window); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

func windowKey(key string, at time.Time, window time.Duration) string {
	return fmt.Sprintf("%s:%d", key, at.UnixNano()/int64(window))
}

// ChatEventKey buckets inbound events per chat and event kind.
func ChatEventKey(chatID int64, kind string) string {
	return fmt.Sprintf("rate_limit:%d:%s", chatID, kind)
}
