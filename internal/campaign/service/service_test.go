package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	campaignrepo "github.com/opiniohq/opinio/internal/campaign/repository"
	"github.com/opiniohq/opinio/internal/clock"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	companyrepo "github.com/opiniohq/opinio/internal/company/repository"
	companyservice "github.com/opiniohq/opinio/internal/company/service"
	entitlementservice "github.com/opiniohq/opinio/internal/entitlement/service"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	portalrepo "github.com/opiniohq/opinio/internal/portal/repository"
	portalservice "github.com/opiniohq/opinio/internal/portal/service"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	subscriptionrepo "github.com/opiniohq/opinio/internal/subscription/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testOwner = "owner-1"

type testEnv struct {
	db      *gorm.DB
	node    *snowflake.Node
	clk     *clock.FakeClock
	svc     campaigndomain.Service
	company *companydomain.Company
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
		&companydomain.Company{},
		&companydomain.CompanyPortalProfile{},
		&subscriptiondomain.Subscription{},
		&campaigndomain.Customer{},
		&campaigndomain.ReviewCampaign{},
		&campaigndomain.ReviewInvitation{},
	))

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	portalSvc := portalservice.New(portalservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Repo: portalrepo.Provide(),
	})
	entitlementSvc := entitlementservice.New(entitlementservice.Params{
		DB: db, Log: zap.NewNop(), Clock: clk, Repo: subscriptionrepo.Provide(),
	})
	companySvc := companyservice.New(companyservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Repo:         companyrepo.Provide(),
		Entitlements: entitlementSvc,
		Portals:      portalSvc,
	})
	campaignSvc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clk,
		Repo:      campaignrepo.Provide(),
		Companies: companySvc,
	})

	sub := &subscriptiondomain.Subscription{
		ID:                     node.Generate(),
		OwnerID:                testOwner,
		Plan:                   subscriptiondomain.PlanStart,
		Status:                 subscriptiondomain.StatusActive,
		ProviderSubscriptionID: "sub_" + node.Generate().String(),
		CreatedAt:              clk.Now(),
		UpdatedAt:              clk.Now(),
	}
	require.NoError(t, db.Create(sub).Error)

	company, err := companySvc.Create(context.Background(), testOwner, companydomain.CreateCompanyRequest{Name: "Beta Instalacje"})
	require.NoError(t, err)

	return &testEnv{db: db, node: node, clk: clk, svc: campaignSvc, company: company}
}

func (e *testEnv) createCampaign(t *testing.T, delayDays int) *campaigndomain.ReviewCampaign {
	t.Helper()
	campaign, err := e.svc.CreateCampaign(context.Background(), testOwner, campaigndomain.CreateCampaignRequest{
		CompanyID: e.company.ID,
		Name:      "Post-purchase",
		Portals:   []string{"dobre-firmy"},
		DelayDays: delayDays,
	})
	require.NoError(t, err)
	return campaign
}

func TestCreateCampaignValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateCampaign(ctx, testOwner, campaigndomain.CreateCampaignRequest{
		CompanyID: env.company.ID,
		Name:      "  ",
		Portals:   []string{"dobre-firmy"},
	})
	require.ErrorIs(t, err, campaigndomain.ErrInvalidName)

	_, err = env.svc.CreateCampaign(ctx, testOwner, campaigndomain.CreateCampaignRequest{
		CompanyID: env.company.ID,
		Name:      "Post-purchase",
		Portals:   []string{"", "  "},
	})
	require.ErrorIs(t, err, campaigndomain.ErrInvalidPortals)

	_, err = env.svc.CreateCampaign(ctx, "owner-2", campaigndomain.CreateCampaignRequest{
		CompanyID: env.company.ID,
		Name:      "Post-purchase",
		Portals:   []string{"dobre-firmy"},
	})
	require.ErrorIs(t, err, campaigndomain.ErrNotFound)
}

func TestCreateCampaignNormalizesPortals(t *testing.T) {
	env := newTestEnv(t)

	campaign, err := env.svc.CreateCampaign(context.Background(), testOwner, campaigndomain.CreateCampaignRequest{
		CompanyID: env.company.ID,
		Name:      "Post-purchase",
		Portals:   []string{" Dobre-Firmy ", "dobre-firmy", "arena-biznesu"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"dobre-firmy", "arena-biznesu"}, []string(campaign.Portals))
	require.Equal(t, campaigndomain.CampaignActive, campaign.Status)
}

func TestRegisterCustomerEventRequiresContact(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.svc.RegisterCustomerEvent(context.Background(), campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		FirstName:   "Jan",
	})
	require.ErrorIs(t, err, campaigndomain.ErrInvalidContact)
}

func TestRegisterCustomerEventUpsertsByEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "Jan@Example.com",
		FirstName:   "Jan",
	})
	require.NoError(t, err)
	require.Equal(t, "jan@example.com", first.Email)

	later := env.clk.Now().Add(48 * time.Hour)
	second, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "jan@example.com",
		FirstName:   "Janusz",
		EventAt:     later,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Janusz", second.FirstName)
	require.Equal(t, later.Unix(), second.LastEventAt.Unix())

	var count int64
	require.NoError(t, env.db.Model(&campaigndomain.Customer{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRegisterCustomerEventKeepsPhoneOnlyCustomersDistinct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Phone:       "+48 111 111 111",
		FirstName:   "Jan",
	})
	require.NoError(t, err)

	second, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Phone:       "+48 222 222 222",
		FirstName:   "Anna",
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	var count int64
	require.NoError(t, env.db.Model(&campaigndomain.Customer{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	var saved campaigndomain.Customer
	require.NoError(t, env.db.First(&saved, "id = ?", first.ID).Error)
	require.Equal(t, "+48 111 111 111", saved.Phone)
	require.Equal(t, "Jan", saved.FirstName)
}

func TestRegisterCustomerEventUpsertsByPhoneWithoutEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Phone:       "+48 111 111 111",
		FirstName:   "Jan",
	})
	require.NoError(t, err)

	second, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Phone:       "+48 111 111 111",
		FirstName:   "Janusz",
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Janusz", second.FirstName)
}

func TestRegisterCustomerEventCarriesMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCampaign(t, 0)

	customer, invitations, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
		Metadata:    datatypes.JSONMap{"order_id": "ORD-1042"},
	})
	require.NoError(t, err)
	require.Equal(t, "ORD-1042", customer.Metadata["order_id"])
	require.Len(t, invitations, 1)
	require.Equal(t, "ORD-1042", invitations[0].Metadata["order_id"])
}

func TestRegisterCustomerEventFansOutInvitations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createCampaign(t, 3)
	paused := env.createCampaign(t, 0)
	pausedStatus := campaigndomain.CampaignPaused
	_, err := env.svc.UpdateCampaign(ctx, testOwner, paused.ID, campaigndomain.UpdateCampaignRequest{Status: &pausedStatus})
	require.NoError(t, err)

	eventAt := env.clk.Now()
	_, invitations, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
		EventAt:     eventAt,
	})
	require.NoError(t, err)
	require.Len(t, invitations, 1, "paused campaigns do not dispatch")
	require.Equal(t, campaigndomain.InvitationPending, invitations[0].Status)
	require.NotEmpty(t, invitations[0].Token)
	require.Equal(t, eventAt.AddDate(0, 0, 3).Unix(), invitations[0].SendAfter.Unix())
}

func TestRegisterCustomerEventSkipsOpenInvitations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCampaign(t, 0)

	_, firstInvites, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)
	require.Len(t, firstInvites, 1)

	_, secondInvites, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)
	require.Empty(t, secondInvites, "the open invitation blocks a second one")
}

func TestRegisterCustomerEventReinvitesAfterConversion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCampaign(t, 0)

	_, invites, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)
	require.Len(t, invites, 1)

	require.NoError(t, env.svc.ConvertToken(ctx, invites[0].Token, env.node.Generate()))

	_, invites, err = env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)
	require.Len(t, invites, 1)
}

func TestResolveTokenRecordsClick(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCampaign(t, 0)

	_, invites, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)

	view, err := env.svc.ResolveToken(ctx, invites[0].Token)
	require.NoError(t, err)
	require.Equal(t, env.company.ID, view.CompanyID)
	require.Equal(t, env.company.Slug, view.CompanySlug)
	require.Equal(t, []string{"dobre-firmy"}, view.Portals)
	require.Equal(t, campaigndomain.InvitationClicked, view.Status)

	var saved campaigndomain.ReviewInvitation
	require.NoError(t, env.db.First(&saved, "id = ?", invites[0].ID).Error)
	require.Equal(t, campaigndomain.InvitationClicked, saved.Status)
}

func TestResolveTokenUnknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ResolveToken(context.Background(), "no-such-token")
	require.ErrorIs(t, err, campaigndomain.ErrTokenNotFound)
}

func TestConvertTokenIsIdempotentAndFinal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createCampaign(t, 0)

	_, invites, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)
	token := invites[0].Token

	reviewID := env.node.Generate()
	require.NoError(t, env.svc.ConvertToken(ctx, token, reviewID))
	require.NoError(t, env.svc.ConvertToken(ctx, token, env.node.Generate()))

	var saved campaigndomain.ReviewInvitation
	require.NoError(t, env.db.First(&saved, "id = ?", invites[0].ID).Error)
	require.Equal(t, campaigndomain.InvitationConverted, saved.Status)
	require.NotNil(t, saved.ReviewID)
	require.Equal(t, reviewID, *saved.ReviewID)

	// A later click never rolls the funnel back.
	view, err := env.svc.ResolveToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, campaigndomain.InvitationConverted, view.Status)

	require.NoError(t, env.db.First(&saved, "id = ?", invites[0].ID).Error)
	require.Equal(t, campaigndomain.InvitationConverted, saved.Status)
}

func TestListInvitationsEnforcesOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	campaign := env.createCampaign(t, 0)

	_, _, err := env.svc.RegisterCustomerEvent(ctx, campaigndomain.CustomerEventRequest{
		CompanySlug: env.company.Slug,
		Email:       "anna@example.com",
	})
	require.NoError(t, err)

	invitations, err := env.svc.ListInvitations(ctx, testOwner, campaign.ID)
	require.NoError(t, err)
	require.Len(t, invitations, 1)

	_, err = env.svc.ListInvitations(ctx, "owner-2", campaign.ID)
	require.ErrorIs(t, err, campaigndomain.ErrNotFound)
}
