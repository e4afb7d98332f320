package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/opiniohq/opinio/internal/clock"
	entitlementdomain "github.com/opiniohq/opinio/internal/entitlement/domain"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	subscriptionrepo "github.com/opiniohq/opinio/internal/subscription/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&subscriptiondomain.Subscription{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, now time.Time) entitlementdomain.Service {
	t.Helper()
	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(now),
		Repo:  subscriptionrepo.Provide(),
	})
}

// One node for the whole package; per-row nodes would collide on IDs
// generated within the same millisecond.
var testNode = func() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}()

func seedSubscription(t *testing.T, db *gorm.DB, owner string, plan subscriptiondomain.Plan, status subscriptiondomain.Status, createdAt time.Time) *subscriptiondomain.Subscription {
	t.Helper()
	sub := &subscriptiondomain.Subscription{
		ID:                     testNode.Generate(),
		OwnerID:                owner,
		Plan:                   plan,
		Status:                 status,
		ProviderSubscriptionID: "sub_" + testNode.Generate().String(),
		CreatedAt:              createdAt,
		UpdatedAt:              createdAt,
	}
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestResolveDefaultsToFree(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	ent, err := svc.Resolve(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.PlanFree, ent.Plan)
	require.Equal(t, 0, ent.MaxCompanies)
	require.False(t, ent.HasAnalytics)
	require.Empty(t, ent.AllowedPortalSlugs)
	require.Nil(t, ent.TrialDaysRemaining)
}

func TestResolveStartPlan(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)
	seedSubscription(t, db, "owner-1", subscriptiondomain.PlanStart, subscriptiondomain.StatusActive, now)

	ent, err := svc.Resolve(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.PlanStart, ent.Plan)
	require.Equal(t, 1, ent.MaxCompanies)
	require.False(t, ent.HasAnalytics)
	require.Equal(t, []string{"dobre-firmy"}, ent.AllowedPortalSlugs)
}

func TestResolveBusinessPlan(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)
	seedSubscription(t, db, "owner-1", subscriptiondomain.PlanBusiness, subscriptiondomain.StatusActive, now)

	ent, err := svc.Resolve(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Equal(t, 3, ent.MaxCompanies)
	require.True(t, ent.HasAnalytics)
	require.ElementsMatch(t, entitlementdomain.AllPortalSlugs, ent.AllowedPortalSlugs)
}

func TestResolveLiveRowOutranksNewerCanceled(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	seedSubscription(t, db, "owner-1", subscriptiondomain.PlanPro, subscriptiondomain.StatusActive, now.Add(-48*time.Hour))
	seedSubscription(t, db, "owner-1", subscriptiondomain.PlanBusiness, subscriptiondomain.StatusCanceled, now.Add(-time.Hour))

	ent, err := svc.Resolve(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Equal(t, subscriptiondomain.PlanPro, ent.Plan)
}

func TestResolveTrialDaysRemaining(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	sub := seedSubscription(t, db, "owner-1", subscriptiondomain.PlanPro, subscriptiondomain.StatusTrialing, now)
	trialEnd := now.Add(36 * time.Hour)
	require.NoError(t, db.Model(sub).Update("trial_end", trialEnd).Error)

	ent, err := svc.Resolve(context.Background(), "owner-1")
	require.NoError(t, err)
	require.NotNil(t, ent.TrialDaysRemaining)
	require.Equal(t, 2, *ent.TrialDaysRemaining)
}

func TestResolveExpiredTrialHasNoDays(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	sub := seedSubscription(t, db, "owner-1", subscriptiondomain.PlanPro, subscriptiondomain.StatusActive, now)
	trialEnd := now.Add(-time.Hour)
	require.NoError(t, db.Model(sub).Update("trial_end", trialEnd).Error)

	ent, err := svc.Resolve(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Nil(t, ent.TrialDaysRemaining)
}
