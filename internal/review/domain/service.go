package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/opiniohq/opinio/pkg/db/pagination"
	"gorm.io/gorm"
)

// MinContentLength is the floor for first-party review content.
const MinContentLength = 10

// SubmitAuthenticatedRequest is the trusted first-party creation path.
type SubmitAuthenticatedRequest struct {
	CompanyID  snowflake.ID
	PortalSlug string
	AuthorName string
	Rating     int
	Title      string
	Content    string
	Pros       string
	Cons       string
}

// SubmitAnonymousRequest is the portal-keyed creation path. Every field is
// required; the review enters moderation.
type SubmitAnonymousRequest struct {
	CompanyID   snowflake.ID
	Rating      int
	Title       string
	Content     string
	AuthorName  string
	AuthorEmail string
	Pros        string
	Cons        string
}

// EditRequest mutates review fields without touching status.
type EditRequest struct {
	Title       *string
	Content     *string
	Rating      *int
	AuthorName  *string
	AuthorEmail *string
	Pros        *string
	Cons        *string
}

type ListRequest struct {
	CompanyID snowflake.ID
	Status    Status
	Page      pagination.Pagination
}

type Service interface {
	// SubmitAuthenticated creates a review through the owner dashboard;
	// it is published immediately, with no moderation step.
	SubmitAuthenticated(ctx context.Context, ownerID string, req SubmitAuthenticatedRequest) (*Review, error)
	// SubmitAnonymous creates a review through a portal-keyed API call; it
	// requires write visibility for (company, portal) and enters pending.
	SubmitAnonymous(ctx context.Context, portalID snowflake.ID, req SubmitAnonymousRequest) (*Review, error)

	Approve(ctx context.Context, reviewID snowflake.ID, ownerID string) error
	Reject(ctx context.Context, reviewID snowflake.ID, ownerID string) error
	Archive(ctx context.Context, reviewID snowflake.ID, ownerID string) error
	Edit(ctx context.Context, reviewID snowflake.ID, ownerID string, req EditRequest) (*Review, error)
	Delete(ctx context.Context, reviewID snowflake.ID, ownerID string) error

	ListForOwner(ctx context.Context, ownerID string, req ListRequest) ([]Review, int64, error)
	ListApproved(ctx context.Context, companyID, portalID snowflake.ID, page pagination.Pagination) ([]Review, int64, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, review *Review) error
	// UpdateContent writes the editable columns only; status moves solely
	// through TransitionStatus.
	UpdateContent(ctx context.Context, db *gorm.DB, review *Review) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Review, error)
	// FindOwned resolves the review through its company's owner; absent and
	// foreign rows both come back nil.
	FindOwned(ctx context.Context, db *gorm.DB, id snowflake.ID, ownerID string) (*Review, error)
	// TransitionStatus performs an atomic compare-and-set on status,
	// reporting whether a row moved. Mutations on one review serialize
	// through this single statement.
	TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []Status, to Status) (bool, error)

	ListForOwner(ctx context.Context, db *gorm.DB, ownerID string, req ListRequest) ([]Review, int64, error)
	ListByStatus(ctx context.Context, db *gorm.DB, companyID, portalID snowflake.ID, status Status, limit, offset int) ([]Review, int64, error)
}

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidRating     = errors.New("invalid_rating")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidContent    = errors.New("invalid_content")
	ErrInvalidAuthor     = errors.New("invalid_author")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrReviewsDisabled   = errors.New("reviews_disabled")
	ErrInvalidTransition = errors.New("invalid_transition")
)

// ValidateRating rejects ratings outside the 1..5 integer range.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}
