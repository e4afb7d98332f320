package ratelimit

import (
	"context"
	"testing"

	"github.com/opiniohq/opinio/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLimiterDisabledWithoutRedis(t *testing.T) {
	l := New(config.Config{}, zap.NewNop())
	require.False(t, l.Enabled())
}

func TestCheckFailsOpenWithoutRedis(t *testing.T) {
	l := New(config.Config{}, zap.NewNop())

	for i := 0; i < 100; i++ {
		result := l.Check(context.Background(), BucketReviewSubmit, "ip:1.2.3.4")
		require.True(t, result.Allowed)
	}
}

func TestCheckFailsOpenOnRedisError(t *testing.T) {
	// Nothing listens on this address; every command errors.
	l := New(config.Config{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	require.True(t, l.Enabled())

	result := l.Check(context.Background(), BucketPublicRead, "ip:1.2.3.4")
	require.True(t, result.Allowed)
}

func TestPoliciesCoverEveryBucket(t *testing.T) {
	for _, bucket := range []Bucket{BucketPublicRead, BucketReviewSubmit, BucketSearch, BucketDashboard} {
		policy, ok := Policies[bucket]
		require.True(t, ok, "missing policy for %s", bucket)
		require.Positive(t, policy.Limit)
		require.Positive(t, policy.Window)
	}

	require.Equal(t, 60, Policies[BucketPublicRead].Limit)
	require.Equal(t, 5, Policies[BucketReviewSubmit].Limit)
	require.Equal(t, 30, Policies[BucketSearch].Limit)
	require.Equal(t, 120, Policies[BucketDashboard].Limit)
}
