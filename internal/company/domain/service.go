package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opiniohq/opinio/pkg/db/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Visibility is the portal-scoped access decision for a company.
//
// Policy: Writable is strictly opt-in (an active profile row with reviews
// enabled). Readable on the public detail page defaults open when no profile
// row exists, so freshly onboarded companies render; search and listing stay
// strictly opt-in regardless.
type Visibility struct {
	Readable bool
	Writable bool
}

type CreateCompanyRequest struct {
	Name               string
	TaxID              string
	Address            string
	City               string
	PostalCode         string
	Phone              string
	Email              string
	Website            string
	ExternalReviewLink string
	Description        string
	Geolocation        datatypes.JSONMap
}

type UpdateCompanyRequest struct {
	Name               *string
	TaxID              *string
	Address            *string
	City               *string
	PostalCode         *string
	Phone              *string
	Email              *string
	Website            *string
	ExternalReviewLink *string
	Description        *string
}

type SetProfileRequest struct {
	IsActive           bool
	ReviewsEnabled     bool
	DiscussionsEnabled bool
	CustomData         datatypes.JSONMap
}

// SearchResult is one row of a portal's company listing.
type SearchResult struct {
	Company
	ReviewCount int64   `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
}

type Service interface {
	Create(ctx context.Context, ownerID string, req CreateCompanyRequest) (*Company, error)
	Update(ctx context.Context, ownerID string, companyID snowflake.ID, req UpdateCompanyRequest) (*Company, error)
	Deactivate(ctx context.Context, ownerID string, companyID snowflake.ID) error
	ListByOwner(ctx context.Context, ownerID string) ([]Company, error)

	// FindOwned loads a company and enforces ownership. Absent and
	// foreign rows are indistinguishable: both return ErrNotFound.
	FindOwned(ctx context.Context, ownerID string, companyID snowflake.ID) (*Company, error)

	GetBySlug(ctx context.Context, slug string) (*Company, error)
	GetByID(ctx context.Context, companyID snowflake.ID) (*Company, error)
	Search(ctx context.Context, portalID snowflake.ID, query string, page pagination.Pagination) ([]SearchResult, int64, error)

	Visibility(ctx context.Context, companyID, portalID snowflake.ID) (Visibility, error)
	SetProfile(ctx context.Context, ownerID string, companyID snowflake.ID, portalSlug string, req SetProfileRequest) (*CompanyPortalProfile, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, company *Company) error
	Update(ctx context.Context, db *gorm.DB, company *Company) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Company, error)
	SlugExists(ctx context.Context, db *gorm.DB, slug string) (bool, error)
	CountByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)
	ListByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]Company, error)

	FindProfile(ctx context.Context, db *gorm.DB, companyID, portalID snowflake.ID) (*CompanyPortalProfile, error)
	UpsertProfile(ctx context.Context, db *gorm.DB, profile *CompanyPortalProfile) error
	SearchByPortal(ctx context.Context, db *gorm.DB, portalID snowflake.ID, query string, limit, offset int) ([]SearchResult, int64, error)
}

var (
	ErrNotFound            = errors.New("not_found")
	ErrInvalidName         = errors.New("invalid_name")
	ErrCompanyLimitReached = errors.New("company_limit_reached")
	ErrPortalNotAllowed    = errors.New("portal_not_allowed")
)
