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
	companyservice "github.com/opiniohq/opinio/internal/company/service"
	entitlementservice "github.com/opiniohq/opinio/internal/entitlement/service"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	portalrepo "github.com/opiniohq/opinio/internal/portal/repository"
	portalservice "github.com/opiniohq/opinio/internal/portal/service"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
	reviewrepo "github.com/opiniohq/opinio/internal/review/repository"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	subscriptionrepo "github.com/opiniohq/opinio/internal/subscription/repository"
	"github.com/opiniohq/opinio/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     reviewdomain.Service
	portal  *portaldomain.Portal
	company *companydomain.Company
}

const testOwner = "owner-1"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&portaldomain.Portal{},
		&companydomain.Company{},
		&companydomain.CompanyPortalProfile{},
		&subscriptiondomain.Subscription{},
		&reviewdomain.Review{},
	))

	node, err := snowflake.NewNode(5)
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
	companySvc := companyservice.New(companyservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Repo:         companyrepo.Provide(),
		Entitlements: entitlementSvc,
		Portals:      portalSvc,
	})
	reviewSvc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      reviewrepo.Provide(),
		Companies: companySvc,
		Portals:   portalSvc,
	})

	portal := &portaldomain.Portal{
		ID:       node.Generate(),
		Name:     "Dobre Firmy",
		Slug:     "dobre-firmy",
		IsActive: true,
	}
	require.NoError(t, db.Create(portal).Error)

	sub := &subscriptiondomain.Subscription{
		ID:                     node.Generate(),
		OwnerID:                testOwner,
		Plan:                   subscriptiondomain.PlanStart,
		Status:                 subscriptiondomain.StatusActive,
		ProviderSubscriptionID: "sub_" + node.Generate().String(),
		CreatedAt:              time.Now().UTC(),
		UpdatedAt:              time.Now().UTC(),
	}
	require.NoError(t, db.Create(sub).Error)

	company, err := companySvc.Create(context.Background(), testOwner, companydomain.CreateCompanyRequest{Name: "Alfa"})
	require.NoError(t, err)

	_, err = companySvc.SetProfile(context.Background(), testOwner, company.ID, "dobre-firmy", companydomain.SetProfileRequest{
		IsActive:       true,
		ReviewsEnabled: true,
	})
	require.NoError(t, err)

	return &testEnv{db: db, node: node, svc: reviewSvc, portal: portal, company: company}
}

func validAnonymous(companyID snowflake.ID) reviewdomain.SubmitAnonymousRequest {
	return reviewdomain.SubmitAnonymousRequest{
		CompanyID:   companyID,
		Rating:      4,
		Title:       "Solid firm",
		Content:     "Good service, would recommend to others.",
		AuthorName:  "Jan Kowalski",
		AuthorEmail: "jan@example.com",
	}
}

func TestSubmitAnonymousEntersPending(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)
	require.Equal(t, reviewdomain.StatusPending, review.Status)
	require.False(t, review.IsVerified)
}

func TestSubmitAnonymousRatingBounds(t *testing.T) {
	env := newTestEnv(t)

	for _, rating := range []int{0, 6, -1} {
		req := validAnonymous(env.company.ID)
		req.Rating = rating
		_, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, req)
		require.ErrorIs(t, err, reviewdomain.ErrInvalidRating, "rating %d", rating)
	}

	for _, rating := range []int{1, 5} {
		req := validAnonymous(env.company.ID)
		req.Rating = rating
		_, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, req)
		require.NoError(t, err, "rating %d", rating)
	}
}

func TestSubmitAnonymousRequiresWritableProfile(t *testing.T) {
	env := newTestEnv(t)

	// No profile row for this portal.
	other := &portaldomain.Portal{
		ID:       env.node.Generate(),
		Name:     "Arena Biznesu",
		Slug:     "arena-biznesu",
		IsActive: true,
	}
	require.NoError(t, env.db.Create(other).Error)

	_, err := env.svc.SubmitAnonymous(context.Background(), other.ID, validAnonymous(env.company.ID))
	require.ErrorIs(t, err, reviewdomain.ErrReviewsDisabled)
}

func TestSubmitAnonymousContentFloor(t *testing.T) {
	env := newTestEnv(t)

	req := validAnonymous(env.company.ID)
	req.Content = "short"
	_, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, req)
	require.ErrorIs(t, err, reviewdomain.ErrInvalidContent)
}

func TestSubmitAuthenticatedPublishesImmediately(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAuthenticated(context.Background(), testOwner, reviewdomain.SubmitAuthenticatedRequest{
		CompanyID:  env.company.ID,
		PortalSlug: "dobre-firmy",
		AuthorName: "Anna Nowak",
		Rating:     5,
		Content:    "Excellent cooperation from start to finish.",
	})
	require.NoError(t, err)
	require.Equal(t, reviewdomain.StatusApproved, review.Status)
	require.True(t, review.IsVerified)
}

func TestApproveFromPending(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)

	require.NoError(t, env.svc.Approve(context.Background(), review.ID, testOwner))

	var saved reviewdomain.Review
	require.NoError(t, env.db.First(&saved, "id = ?", review.ID).Error)
	require.Equal(t, reviewdomain.StatusApproved, saved.Status)
}

func TestApproveIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)

	require.NoError(t, env.svc.Approve(context.Background(), review.ID, testOwner))
	require.NoError(t, env.svc.Approve(context.Background(), review.ID, testOwner))
}

func TestRejectedIsTerminal(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)

	require.NoError(t, env.svc.Reject(context.Background(), review.ID, testOwner))

	err = env.svc.Approve(context.Background(), review.ID, testOwner)
	require.ErrorIs(t, err, reviewdomain.ErrInvalidTransition)
	err = env.svc.Archive(context.Background(), review.ID, testOwner)
	require.ErrorIs(t, err, reviewdomain.ErrInvalidTransition)
}

func TestArchiveIsIrreversible(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)
	require.NoError(t, env.svc.Approve(context.Background(), review.ID, testOwner))
	require.NoError(t, env.svc.Archive(context.Background(), review.ID, testOwner))

	err = env.svc.Approve(context.Background(), review.ID, testOwner)
	require.ErrorIs(t, err, reviewdomain.ErrInvalidTransition)
}

func TestModerationHidesForeignReviews(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)

	// A different tenant cannot even see the review.
	err = env.svc.Approve(context.Background(), review.ID, "owner-2")
	require.ErrorIs(t, err, reviewdomain.ErrNotFound)

	err = env.svc.Approve(context.Background(), env.node.Generate(), testOwner)
	require.ErrorIs(t, err, reviewdomain.ErrNotFound)
}

func TestListApprovedExcludesOtherStatuses(t *testing.T) {
	env := newTestEnv(t)

	pending, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)
	approved, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)
	require.NoError(t, env.svc.Approve(context.Background(), approved.ID, testOwner))

	reviews, total, err := env.svc.ListApproved(context.Background(), env.company.ID, env.portal.ID, pagination.Pagination{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, reviews, 1)
	require.Equal(t, approved.ID, reviews[0].ID)
	require.NotEqual(t, pending.ID, reviews[0].ID)
}

func TestEditValidatesLikeCreate(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)

	badRating := 9
	_, err = env.svc.Edit(context.Background(), review.ID, testOwner, reviewdomain.EditRequest{Rating: &badRating})
	require.ErrorIs(t, err, reviewdomain.ErrInvalidRating)

	newTitle := "Updated title"
	updated, err := env.svc.Edit(context.Background(), review.ID, testOwner, reviewdomain.EditRequest{Title: &newTitle})
	require.NoError(t, err)
	require.Equal(t, "Updated title", updated.Title)
}

func TestDeleteRemovesReview(t *testing.T) {
	env := newTestEnv(t)

	review, err := env.svc.SubmitAnonymous(context.Background(), env.portal.ID, validAnonymous(env.company.ID))
	require.NoError(t, err)
	require.NoError(t, env.svc.Delete(context.Background(), review.ID, testOwner))

	err = env.svc.Delete(context.Background(), review.ID, testOwner)
	require.ErrorIs(t, err, reviewdomain.ErrNotFound)
}
