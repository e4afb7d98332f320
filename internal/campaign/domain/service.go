package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateCampaignRequest struct {
	CompanyID snowflake.ID
	Name      string
	Portals   []string
	DelayDays int
}

type UpdateCampaignRequest struct {
	Name      *string
	Portals   []string
	Status    *CampaignStatus
	DelayDays *int
}

// CustomerEventRequest is the trusted ingestion payload. At least one of
// Email and Phone is required.
type CustomerEventRequest struct {
	CompanySlug string
	Email       string
	Phone       string
	FirstName   string
	LastName    string
	Metadata    datatypes.JSONMap
	EventAt     time.Time
}

// InvitationView is the public resolution of an invitation token.
type InvitationView struct {
	InvitationID snowflake.ID     `json:"invitation_id"`
	CompanyID    snowflake.ID     `json:"company_id"`
	CompanyName  string           `json:"company_name"`
	CompanySlug  string           `json:"company_slug"`
	Portals      []string         `json:"portals"`
	Status       InvitationStatus `json:"status"`
}

type Service interface {
	CreateCampaign(ctx context.Context, ownerID string, req CreateCampaignRequest) (*ReviewCampaign, error)
	UpdateCampaign(ctx context.Context, ownerID string, campaignID snowflake.ID, req UpdateCampaignRequest) (*ReviewCampaign, error)
	DeleteCampaign(ctx context.Context, ownerID string, campaignID snowflake.ID) error
	ListCampaigns(ctx context.Context, ownerID string, companyID snowflake.ID) ([]ReviewCampaign, error)

	// RegisterCustomerEvent upserts the customer and fans out one
	// invitation per active campaign, all in a single transaction. A
	// customer with an unconverted invitation for a campaign is not
	// invited again.
	RegisterCustomerEvent(ctx context.Context, req CustomerEventRequest) (*Customer, []ReviewInvitation, error)

	// ResolveToken loads the invitation behind a public token and records
	// the click. The funnel state never moves backwards.
	ResolveToken(ctx context.Context, token string) (*InvitationView, error)
	// ConvertToken marks the invitation converted and pins the review it
	// produced. Converting twice is a no-op.
	ConvertToken(ctx context.Context, token string, reviewID snowflake.ID) error

	ListInvitations(ctx context.Context, ownerID string, campaignID snowflake.ID) ([]ReviewInvitation, error)
}

type Repository interface {
	InsertCampaign(ctx context.Context, db *gorm.DB, campaign *ReviewCampaign) error
	SaveCampaign(ctx context.Context, db *gorm.DB, campaign *ReviewCampaign) error
	DeleteCampaign(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindCampaignByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ReviewCampaign, error)
	// FindOwnedCampaign resolves a campaign through its company's owner;
	// absent and foreign rows both come back nil.
	FindOwnedCampaign(ctx context.Context, db *gorm.DB, id snowflake.ID, ownerID string) (*ReviewCampaign, error)
	ListCampaignsByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]ReviewCampaign, error)
	ListActiveCampaignsByCompany(ctx context.Context, db *gorm.DB, companyID snowflake.ID) ([]ReviewCampaign, error)

	UpsertCustomer(ctx context.Context, db *gorm.DB, customer *Customer) (*Customer, error)

	InsertInvitation(ctx context.Context, db *gorm.DB, invitation *ReviewInvitation) error
	FindInvitationByToken(ctx context.Context, db *gorm.DB, token string) (*ReviewInvitation, error)
	// HasOpenInvitation reports whether the customer already holds an
	// unconverted invitation for the campaign.
	HasOpenInvitation(ctx context.Context, db *gorm.DB, campaignID, customerID snowflake.ID) (bool, error)
	// AdvanceInvitation moves the funnel state forward only; a row already
	// at or past the target state is left alone.
	AdvanceInvitation(ctx context.Context, db *gorm.DB, id snowflake.ID, to InvitationStatus, reviewID *snowflake.ID) error
	ListInvitationsByCampaign(ctx context.Context, db *gorm.DB, campaignID snowflake.ID) ([]ReviewInvitation, error)
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidPortals = errors.New("invalid_portals")
	ErrInvalidContact = errors.New("invalid_contact")
	ErrTokenNotFound  = errors.New("token_not_found")
)
