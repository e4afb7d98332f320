package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/opiniohq/opinio/internal/clock"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	companyrepo "github.com/opiniohq/opinio/internal/company/repository"
	entitlementservice "github.com/opiniohq/opinio/internal/entitlement/service"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	portalrepo "github.com/opiniohq/opinio/internal/portal/repository"
	portalservice "github.com/opiniohq/opinio/internal/portal/service"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	subscriptionrepo "github.com/opiniohq/opinio/internal/subscription/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	node   *snowflake.Node
	svc    companydomain.Service
	portal *portaldomain.Portal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&portaldomain.Portal{},
		&portaldomain.PortalKey{},
		&companydomain.Company{},
		&companydomain.CompanyPortalProfile{},
		&subscriptiondomain.Subscription{},
	))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	portalSvc := portalservice.New(portalservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Repo: portalrepo.Provide(),
	})
	entitlementSvc := entitlementservice.New(entitlementservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Now()),
		Repo:  subscriptionrepo.Provide(),
	})
	companySvc := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Repo:         companyrepo.Provide(),
		Entitlements: entitlementSvc,
		Portals:      portalSvc,
	})

	portal := &portaldomain.Portal{
		ID:       node.Generate(),
		Name:     "Dobre Firmy",
		Slug:     "dobre-firmy",
		IsActive: true,
	}
	require.NoError(t, db.Create(portal).Error)

	return &testEnv{db: db, node: node, svc: companySvc, portal: portal}
}

func (e *testEnv) subscribe(t *testing.T, owner string, plan subscriptiondomain.Plan) {
	t.Helper()
	sub := &subscriptiondomain.Subscription{
		ID:                     e.node.Generate(),
		OwnerID:                owner,
		Plan:                   plan,
		Status:                 subscriptiondomain.StatusActive,
		ProviderSubscriptionID: "sub_" + e.node.Generate().String(),
		CreatedAt:              time.Now().UTC(),
		UpdatedAt:              time.Now().UTC(),
	}
	require.NoError(t, e.db.Create(sub).Error)
}

func TestCreateRequiresQuota(t *testing.T) {
	env := newTestEnv(t)

	// Free tier has no company quota at all.
	_, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.ErrorIs(t, err, companydomain.ErrCompanyLimitReached)
}

func TestCreateWithinQuota(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa Budownictwo"})
	require.NoError(t, err)
	require.Equal(t, "alfa-budownictwo", company.Slug)
	require.True(t, company.IsActive)

	// Quota on the start plan is one company.
	_, err = env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Beta"})
	require.ErrorIs(t, err, companydomain.ErrCompanyLimitReached)
}

func TestCreateDisambiguatesSlugs(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanBusiness)

	first, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)
	second, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	require.Equal(t, "alfa", first.Slug)
	require.Equal(t, "alfa-2", second.Slug)
}

func TestFindOwnedHidesForeignCompanies(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	_, err = env.svc.FindOwned(context.Background(), "owner-2", company.ID)
	require.ErrorIs(t, err, companydomain.ErrNotFound)

	_, err = env.svc.FindOwned(context.Background(), "owner-1", env.node.Generate())
	require.ErrorIs(t, err, companydomain.ErrNotFound)
}

func TestVisibilityWithoutProfile(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	vis, err := env.svc.Visibility(context.Background(), company.ID, env.portal.ID)
	require.NoError(t, err)
	require.True(t, vis.Readable)
	require.False(t, vis.Writable)
}

func TestSetProfileEnablesWrites(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	_, err = env.svc.SetProfile(context.Background(), "owner-1", company.ID, "dobre-firmy", companydomain.SetProfileRequest{
		IsActive:       true,
		ReviewsEnabled: true,
	})
	require.NoError(t, err)

	vis, err := env.svc.Visibility(context.Background(), company.ID, env.portal.ID)
	require.NoError(t, err)
	require.True(t, vis.Readable)
	require.True(t, vis.Writable)
}

func TestSetProfileRespectsPlanPortals(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	// The start plan only covers dobre-firmy.
	_, err = env.svc.SetProfile(context.Background(), "owner-1", company.ID, "arena-biznesu", companydomain.SetProfileRequest{
		IsActive:       true,
		ReviewsEnabled: true,
	})
	require.ErrorIs(t, err, companydomain.ErrPortalNotAllowed)
}

func TestSetProfileDisabledBlocksWrites(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	_, err = env.svc.SetProfile(context.Background(), "owner-1", company.ID, "dobre-firmy", companydomain.SetProfileRequest{
		IsActive:       true,
		ReviewsEnabled: false,
	})
	require.NoError(t, err)

	vis, err := env.svc.Visibility(context.Background(), company.ID, env.portal.ID)
	require.NoError(t, err)
	require.False(t, vis.Writable)
}

func TestDeactivateHidesFromPublicLookup(t *testing.T) {
	env := newTestEnv(t)
	env.subscribe(t, "owner-1", subscriptiondomain.PlanStart)

	company, err := env.svc.Create(context.Background(), "owner-1", companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)
	require.NoError(t, env.svc.Deactivate(context.Background(), "owner-1", company.ID))

	_, err = env.svc.GetBySlug(context.Background(), company.Slug)
	require.ErrorIs(t, err, companydomain.ErrNotFound)

	// The owner still sees the row.
	owned, err := env.svc.FindOwned(context.Background(), "owner-1", company.ID)
	require.NoError(t, err)
	require.False(t, owned.IsActive)
}
