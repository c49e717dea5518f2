package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vartalang/vartalang-api/internal/core/ports"
)

// fixedWindowLua increments the window counter and starts the window expiry on
// the first hit. Returns {count, pttl}.
const fixedWindowLua = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// FixedWindowLimiter counts requests per key in fixed windows stored in Redis.
type FixedWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	script *redis.Script
}

var _ ports.RateLimiter = (*FixedWindowLimiter)(nil)

// NewFixedWindowLimiter allows limit hits per key within each window.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		script: redis.NewScript(fixedWindowLua),
	}
}

// Limit returns the number of hits allowed per window.
func (l *FixedWindowLimiter) Limit() int { return l.limit }

// Allow records one hit for key and reports whether it fits the window budget.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (ports.RateDecision, error) {
	if l.limit <= 0 || l.window <= 0 {
		return ports.RateDecision{Allowed: true}, nil
	}

	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.RateDecision{}, fmt.Errorf("ratelimit eval: %w", err)
	}
	if len(res) != 2 {
		return ports.RateDecision{}, errors.New("ratelimit: invalid script result")
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count > int64(l.limit) {
		return ports.RateDecision{Allowed: false, RetryAfter: ttl}, nil
	}
	return ports.RateDecision{Allowed: true, Remaining: l.limit - int(count)}, nil
}
