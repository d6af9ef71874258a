// Package ratelimit throttles per-caller request rates.
//
// The Redis-backed limiter shares a fixed window across every API instance.
// When Redis is disabled or failing, callers fall back to an in-process token
// bucket per key.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eventdesk/eventdesk-api/internal/core"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config is the shared limit: Limit requests per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

func (c Config) validate() error {
	if c.Limit < 1 {
		return errors.New("limit must be at least 1")
	}
	if c.Window <= 0 {
		return errors.New("window must be positive")
	}
	return nil
}

// RedisLimiter counts requests per fixed window in the shared cache.
type RedisLimiter struct {
	cache core.CacheRepository
	cfg   Config
	now   func() time.Time
}

// NewRedisLimiter creates a fixed-window limiter on top of cache.
func NewRedisLimiter(cache core.CacheRepository, cfg Config) (*RedisLimiter, error) {
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &RedisLimiter{cache: cache, cfg: cfg, now: time.Now}, nil
}

// Allow increments the caller's counter for the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := l.now()
	windowStart := now.Truncate(l.cfg.Window)
	bucket := "ratelimit:" + key + ":" + strconv.FormatInt(windowStart.Unix(), 10)

	count, err := l.cache.Incr(ctx, bucket, l.cfg.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	d := Decision{
		Allowed:   count <= int64(l.cfg.Limit),
		Limit:     l.cfg.Limit,
		Remaining: max(l.cfg.Limit-int(count), 0),
	}
	if !d.Allowed {
		d.RetryAfter = windowStart.Add(l.cfg.Window).Sub(now)
	}
	return d, nil
}

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	cfg     Config
	every   rate.Limit
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// pruneThreshold is the bucket count above which idle buckets are dropped.
const pruneThreshold = 10_000

// NewLocalLimiter creates an in-process limiter that refills Limit tokens per Window.
func NewLocalLimiter(cfg Config) (*LocalLimiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &LocalLimiter{
		cfg:     cfg,
		every:   rate.Every(cfg.Window / time.Duration(cfg.Limit)),
		buckets: make(map[string]*localBucket),
		now:     time.Now,
	}, nil
}

// Allow consumes one token from the caller's bucket.
func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= pruneThreshold {
			l.pruneLocked(now)
		}
		b = &localBucket{limiter: rate.NewLimiter(l.every, l.cfg.Limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Allowed: false, Limit: l.cfg.Limit, RetryAfter: delay}, nil
	}
	return Decision{
		Allowed:   true,
		Limit:     l.cfg.Limit,
		Remaining: max(int(b.limiter.TokensAt(now)), 0),
	}, nil
}

func (l *LocalLimiter) pruneLocked(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.Window {
			delete(l.buckets, k)
		}
	}
}

// FallbackLimiter consults Primary and switches to Fallback for any call
// where Primary errors. A nil Primary always uses Fallback.
type FallbackLimiter struct {
	Primary  Limiter
	Fallback Limiter
	Logger   *slog.Logger
}

// Allow implements Limiter.
func (f *FallbackLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if f.Primary != nil {
		d, err := f.Primary.Allow(ctx, key)
		if err == nil {
			return d, nil
		}
		if f.Logger != nil {
			f.Logger.WarnContext(ctx, "primary rate limiter failed; using local fallback", "error", err)
		}
	}
	return f.Fallback.Allow(ctx, key)
}
