package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opiniohq/opinio/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(New),
)

// Bucket is an operation class with its own budget.
type Bucket string

const (
	BucketPublicRead   Bucket = "public_read"
	BucketReviewSubmit Bucket = "review_submit"
	BucketSearch       Bucket = "search"
	BucketDashboard    Bucket = "dashboard"
)

// Policy holds the per-bucket budget over a sliding window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Policies is the budget table. Adding a bucket is a data change.
var Policies = map[Bucket]Policy{
	BucketPublicRead:   {Limit: 60, Window: time.Minute},
	BucketReviewSubmit: {Limit: 5, Window: time.Minute},
	BucketSearch:       {Limit: 30, Window: time.Minute},
	BucketDashboard:    {Limit: 120, Window: time.Minute},
}

// Result is the outcome of a rate-limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter gates requests per (bucket, identity) against Redis. When no store
// is configured or a check errors, the limiter fails open and allows the
// request.
type Limiter struct {
	log    *zap.Logger
	window *slidingWindow
}

// New builds the limiter. A missing REDIS_ADDR yields an allow-all limiter.
func New(cfg config.Config, log *zap.Logger) *Limiter {
	l := &Limiter{log: log.Named("ratelimit")}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		l.log.Warn("rate limiting disabled, no redis configured")
		return l
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	l.window = newSlidingWindow(client)
	return l
}

// Enabled reports whether a backing store is configured.
func (l *Limiter) Enabled() bool {
	return l != nil && l.window != nil
}

// Check consumes one request from the (bucket, identity) budget.
func (l *Limiter) Check(ctx context.Context, bucket Bucket, identity string) Result {
	policy, ok := Policies[bucket]
	if !ok {
		policy = Policies[BucketPublicRead]
	}

	open := Result{
		Allowed:   true,
		Limit:     policy.Limit,
		Remaining: policy.Limit,
		ResetAt:   time.Now().UTC().Add(policy.Window),
	}

	if !l.Enabled() {
		return open
	}

	key := fmt.Sprintf("ratelimit:%s:%s", bucket, strings.TrimSpace(identity))
	allowed, count, oldest, err := l.window.allow(ctx, key, policy.Limit, policy.Window)
	if err != nil {
		// Fail open: availability over enforcement.
		l.log.Warn("rate limit check failed, allowing request",
			zap.String("bucket", string(bucket)),
			zap.Error(err),
		)
		return open
	}

	remaining := policy.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   allowed,
		Limit:     policy.Limit,
		Remaining: remaining,
		ResetAt:   oldest.Add(policy.Window),
	}
}
