package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Class partitions counters by route sensitivity. Each (identity, class)
// pair owns an independent counter and limit.
type Class uint8

const (
	// ClassGlobal is the default budget for governed routes.
	ClassGlobal Class = iota
	// ClassLogin is the stricter budget for the login route, sized to blunt
	// credential stuffing.
	ClassLogin
)

func (c Class) String() string {
	if c == ClassLogin {
		return "login"
	}
	return "global"
}

// Config holds the per-class budgets and the failed-login budget.
type Config struct {
	Prefix       string
	GlobalLimit  int
	GlobalWindow time.Duration
	LoginLimit   int
	LoginWindow  time.Duration

	FailureLimit    int
	FailureCooldown time.Duration
}

// Result reports one admission decision together with the header material
// callers surface to clients.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
	// RetryAfter is the time left in the current window, reported on every
	// decision so callers can expose a reset instant even while allowing.
	RetryAfter time.Duration
}

// Governor enforces fixed-window budgets per resolved identity.
type Governor struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a Governor backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Governor {
	if cfg.Prefix == "" {
		cfg.Prefix = "sg"
	}
	return &Governor{redis: client, config: cfg}
}

// Allow counts one request for (identity, class) and reports whether it is
// within budget. The increment commits even when the request is later
// aborted: each guard step is independently committed.
func (g *Governor) Allow(ctx context.Context, identity string, class Class) (Result, error) {
	limit, window := g.config.GlobalLimit, g.config.GlobalWindow
	if class == ClassLogin {
		limit, window = g.config.LoginLimit, g.config.LoginWindow
	}

	key := g.requestKey(identity, class)
	count, err := g.incrementWithTTL(ctx, key, window)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Allowed:    count <= int64(limit),
		Limit:      limit,
		Remaining:  int(max64(int64(limit)-count, 0)),
		Window:     window,
		RetryAfter: g.retryAfter(ctx, key, window),
	}, nil
}

// CheckFailures reports whether the identifier is still within its
// failed-login budget without counting anything.
func (g *Governor) CheckFailures(ctx context.Context, identifier string) error {
	count, err := g.redis.Get(ctx, g.failureKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if count >= int64(g.config.FailureLimit) {
		return ErrLimited
	}
	return nil
}

// RecordFailure counts one failed login for the identifier.
func (g *Governor) RecordFailure(ctx context.Context, identifier string) error {
	count, err := g.incrementWithTTL(ctx, g.failureKey(identifier), g.config.FailureCooldown)
	if err != nil {
		return err
	}
	if count >= int64(g.config.FailureLimit) {
		return ErrLimited
	}
	return nil
}

// ResetFailures clears the failed-login counter after a successful login.
func (g *Governor) ResetFailures(ctx context.Context, identifier string) error {
	if err := g.redis.Del(ctx, g.failureKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (g *Governor) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := g.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Fixed-window semantics: the TTL is set only by the first hit in the
	// window.
	if count == 1 {
		if err := g.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	return count, nil
}

func (g *Governor) retryAfter(ctx context.Context, key string, window time.Duration) time.Duration {
	ttl, err := g.redis.PTTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		return window
	}
	return ttl
}

func (g *Governor) requestKey(identity string, class Class) string {
	return g.config.Prefix + ":rl:" + class.String() + ":" + identity
}

func (g *Governor) failureKey(identifier string) string {
	return g.config.Prefix + ":loginfail:" + identifier
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
