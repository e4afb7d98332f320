package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
	"github.com/opiniohq/opinio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      reviewdomain.Repository
	Companies companydomain.Service
	Portals   portaldomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      reviewdomain.Repository
	companies companydomain.Service
	portals   portaldomain.Service
}

func New(p Params) reviewdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("review.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		companies: p.Companies,
		portals:   p.Portals,
	}
}

func (s *Service) SubmitAuthenticated(ctx context.Context, ownerID string, req reviewdomain.SubmitAuthenticatedRequest) (*reviewdomain.Review, error) {
	if err := reviewdomain.ValidateRating(req.Rating); err != nil {
		return nil, err
	}
	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		return nil, reviewdomain.ErrInvalidAuthor
	}
	content := strings.TrimSpace(req.Content)
	if len(content) < reviewdomain.MinContentLength {
		return nil, reviewdomain.ErrInvalidContent
	}

	if _, err := s.companies.FindOwned(ctx, ownerID, req.CompanyID); err != nil {
		if err == companydomain.ErrNotFound {
			return nil, reviewdomain.ErrNotFound
		}
		return nil, err
	}
	portal, err := s.portals.FindBySlug(ctx, req.PortalSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &reviewdomain.Review{
		ID:         s.genID.Generate(),
		CompanyID:  req.CompanyID,
		PortalID:   portal.ID,
		AuthorName: author,
		Rating:     req.Rating,
		Title:      strings.TrimSpace(req.Title),
		Content:    content,
		Pros:       strings.TrimSpace(req.Pros),
		Cons:       strings.TrimSpace(req.Cons),
		Status:     reviewdomain.StatusApproved,
		ReviewDate: now,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, review); err != nil {
		return nil, err
	}
	s.log.Info("review published",
		zap.Int64("review_id", review.ID.Int64()),
		zap.Int64("company_id", review.CompanyID.Int64()),
		zap.String("portal", req.PortalSlug),
	)
	return review, nil
}

func (s *Service) SubmitAnonymous(ctx context.Context, portalID snowflake.ID, req reviewdomain.SubmitAnonymousRequest) (*reviewdomain.Review, error) {
	if err := reviewdomain.ValidateRating(req.Rating); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, reviewdomain.ErrInvalidTitle
	}
	content := strings.TrimSpace(req.Content)
	if len(content) < reviewdomain.MinContentLength {
		return nil, reviewdomain.ErrInvalidContent
	}
	author := strings.TrimSpace(req.AuthorName)
	if author == "" {
		return nil, reviewdomain.ErrInvalidAuthor
	}
	email := strings.TrimSpace(req.AuthorEmail)
	if email == "" || !strings.Contains(email, "@") {
		return nil, reviewdomain.ErrInvalidEmail
	}

	vis, err := s.companies.Visibility(ctx, req.CompanyID, portalID)
	if err != nil {
		return nil, err
	}
	if !vis.Writable {
		return nil, reviewdomain.ErrReviewsDisabled
	}

	now := time.Now().UTC()
	review := &reviewdomain.Review{
		ID:          s.genID.Generate(),
		CompanyID:   req.CompanyID,
		PortalID:    portalID,
		AuthorName:  author,
		AuthorEmail: email,
		Rating:      req.Rating,
		Title:       title,
		Content:     content,
		Pros:        strings.TrimSpace(req.Pros),
		Cons:        strings.TrimSpace(req.Cons),
		Status:      reviewdomain.StatusPending,
		ReviewDate:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) Approve(ctx context.Context, reviewID snowflake.ID, ownerID string) error {
	review, err := s.findOwned(ctx, reviewID, ownerID)
	if err != nil {
		return err
	}
	// Re-approving an approved review is a no-op success.
	if review.Status == reviewdomain.StatusApproved {
		return nil
	}
	return s.transition(ctx, reviewID, []reviewdomain.Status{reviewdomain.StatusPending}, reviewdomain.StatusApproved)
}

func (s *Service) Reject(ctx context.Context, reviewID snowflake.ID, ownerID string) error {
	if _, err := s.findOwned(ctx, reviewID, ownerID); err != nil {
		return err
	}
	return s.transition(ctx, reviewID, []reviewdomain.Status{reviewdomain.StatusPending}, reviewdomain.StatusRejected)
}

func (s *Service) Archive(ctx context.Context, reviewID snowflake.ID, ownerID string) error {
	if _, err := s.findOwned(ctx, reviewID, ownerID); err != nil {
		return err
	}
	return s.transition(ctx, reviewID,
		[]reviewdomain.Status{reviewdomain.StatusPending, reviewdomain.StatusApproved},
		reviewdomain.StatusArchived,
	)
}

func (s *Service) Edit(ctx context.Context, reviewID snowflake.ID, ownerID string, req reviewdomain.EditRequest) (*reviewdomain.Review, error) {
	review, err := s.findOwned(ctx, reviewID, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if err := reviewdomain.ValidateRating(*req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}
	if req.Title != nil {
		review.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if len(content) < reviewdomain.MinContentLength {
			return nil, reviewdomain.ErrInvalidContent
		}
		review.Content = content
	}
	if req.AuthorName != nil {
		author := strings.TrimSpace(*req.AuthorName)
		if author == "" {
			return nil, reviewdomain.ErrInvalidAuthor
		}
		review.AuthorName = author
	}
	if req.AuthorEmail != nil {
		review.AuthorEmail = strings.TrimSpace(*req.AuthorEmail)
	}
	if req.Pros != nil {
		review.Pros = strings.TrimSpace(*req.Pros)
	}
	if req.Cons != nil {
		review.Cons = strings.TrimSpace(*req.Cons)
	}

	review.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateContent(ctx, s.db, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) Delete(ctx context.Context, reviewID snowflake.ID, ownerID string) error {
	if _, err := s.findOwned(ctx, reviewID, ownerID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, reviewID)
}

func (s *Service) ListForOwner(ctx context.Context, ownerID string, req reviewdomain.ListRequest) ([]reviewdomain.Review, int64, error) {
	return s.repo.ListForOwner(ctx, s.db, ownerID, req)
}

func (s *Service) ListApproved(ctx context.Context, companyID, portalID snowflake.ID, page pagination.Pagination) ([]reviewdomain.Review, int64, error) {
	p := page.Normalize()
	return s.repo.ListByStatus(ctx, s.db, companyID, portalID, reviewdomain.StatusApproved, p.Limit, p.Offset())
}

func (s *Service) findOwned(ctx context.Context, reviewID snowflake.ID, ownerID string) (*reviewdomain.Review, error) {
	review, err := s.repo.FindOwned(ctx, s.db, reviewID, ownerID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, reviewdomain.ErrNotFound
	}
	return review, nil
}

func (s *Service) transition(ctx context.Context, reviewID snowflake.ID, from []reviewdomain.Status, to reviewdomain.Status) error {
	moved, err := s.repo.TransitionStatus(ctx, s.db, reviewID, from, to)
	if err != nil {
		return err
	}
	if !moved {
		return reviewdomain.ErrInvalidTransition
	}
	return nil
}
