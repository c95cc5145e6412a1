// Package ratelimit implements a fixed-window request counter shared by all
// server instances through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool
	Count      int
	RetryAfter time.Duration
}

// Store counts requests per key within a window.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// takeScript admits a request only while the counter is below the limit. A
// rejected request leaves the counter untouched. The window starts with the
// first admitted request.
var takeScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return {0, current, redis.call('PTTL', KEYS[1])}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, current, redis.call('PTTL', KEYS[1])}
`)

type RedisStore struct {
	client redis.Scripter
}

func NewRedisStore(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	vals, err := takeScript.Run(ctx, s.client, []string{key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis eval: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("redis eval: unexpected reply %v", vals)
	}

	res := Result{Allowed: vals[0] == 1, Count: int(vals[1])}
	if !res.Allowed && vals[2] > 0 {
		res.RetryAfter = time.Duration(vals[2]) * time.Millisecond
	}
	return res, nil
}

// Limiter applies one policy, limit requests per window, to every
// (route, client) pair.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	prefix string
	log    logging.Logger
}

func NewLimiter(store Store, limit int, window time.Duration, log logging.Logger) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, prefix: "ratelimit", log: log}
}

// Allow records a request from client on route. Backend failures admit the
// request.
func (l *Limiter) Allow(ctx context.Context, route, client string) Result {
	key := l.prefix + ":" + route + ":" + client

	res, err := l.store.Take(ctx, key, l.limit, l.window)
	if err != nil {
		l.log.Warn(ctx, "rate limiter unavailable, admitting request", "route", route, "error", err)
		return Result{Allowed: true}
	}
	return res
}
