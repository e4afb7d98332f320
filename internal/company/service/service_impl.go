package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	entitlementdomain "github.com/opiniohq/opinio/internal/entitlement/domain"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	"github.com/opiniohq/opinio/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         companydomain.Repository
	Entitlements entitlementdomain.Service
	Portals      portaldomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         companydomain.Repository
	entitlements entitlementdomain.Service
	portals      portaldomain.Service
}

func New(p Params) companydomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("company.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		entitlements: p.Entitlements,
		portals:      p.Portals,
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, req companydomain.CreateCompanyRequest) (*companydomain.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, companydomain.ErrInvalidName
	}

	ent, err := s.entitlements.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.CountByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, err
	}
	if !ent.CanAddCompany(int(current)) {
		return nil, companydomain.ErrCompanyLimitReached
	}

	companySlug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	company := &companydomain.Company{
		ID:                 s.genID.Generate(),
		OwnerID:            ownerID,
		Name:               name,
		Slug:               companySlug,
		TaxID:              strings.TrimSpace(req.TaxID),
		Address:            strings.TrimSpace(req.Address),
		City:               strings.TrimSpace(req.City),
		PostalCode:         strings.TrimSpace(req.PostalCode),
		Phone:              strings.TrimSpace(req.Phone),
		Email:              strings.TrimSpace(req.Email),
		Website:            strings.TrimSpace(req.Website),
		ExternalReviewLink: strings.TrimSpace(req.ExternalReviewLink),
		Description:        strings.TrimSpace(req.Description),
		Geolocation:        req.Geolocation,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, s.db, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, s.db, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) Update(ctx context.Context, ownerID string, companyID snowflake.ID, req companydomain.UpdateCompanyRequest) (*companydomain.Company, error) {
	company, err := s.FindOwned(ctx, ownerID, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, companydomain.ErrInvalidName
		}
		company.Name = name
	}
	applyString(&company.TaxID, req.TaxID)
	applyString(&company.Address, req.Address)
	applyString(&company.City, req.City)
	applyString(&company.PostalCode, req.PostalCode)
	applyString(&company.Phone, req.Phone)
	applyString(&company.Email, req.Email)
	applyString(&company.Website, req.Website)
	applyString(&company.ExternalReviewLink, req.ExternalReviewLink)
	applyString(&company.Description, req.Description)
	company.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, company); err != nil {
		return nil, err
	}
	return company, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (s *Service) Deactivate(ctx context.Context, ownerID string, companyID snowflake.ID) error {
	company, err := s.FindOwned(ctx, ownerID, companyID)
	if err != nil {
		return err
	}

	company.IsActive = false
	company.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, s.db, company)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]companydomain.Company, error) {
	return s.repo.ListByOwner(ctx, s.db, ownerID)
}

func (s *Service) FindOwned(ctx context.Context, ownerID string, companyID snowflake.ID) (*companydomain.Company, error) {
	company, err := s.repo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	// Absent and not-owned collapse into the same answer so callers cannot
	// probe for other tenants' company IDs.
	if company == nil || company.OwnerID != ownerID {
		return nil, companydomain.ErrNotFound
	}
	return company, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*companydomain.Company, error) {
	company, err := s.repo.FindBySlug(ctx, s.db, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	if company == nil || !company.IsActive {
		return nil, companydomain.ErrNotFound
	}
	return company, nil
}

func (s *Service) GetByID(ctx context.Context, companyID snowflake.ID) (*companydomain.Company, error) {
	company, err := s.repo.FindByID(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	return company, nil
}

func (s *Service) Search(ctx context.Context, portalID snowflake.ID, query string, page pagination.Pagination) ([]companydomain.SearchResult, int64, error) {
	page = page.Normalize()
	return s.repo.SearchByPortal(ctx, s.db, portalID, query, page.Limit, page.Offset())
}

func (s *Service) Visibility(ctx context.Context, companyID, portalID snowflake.ID) (companydomain.Visibility, error) {
	profile, err := s.repo.FindProfile(ctx, s.db, companyID, portalID)
	if err != nil {
		return companydomain.Visibility{}, err
	}
	if profile == nil {
		// No opt-in row: readable on the detail surface, never writable.
		return companydomain.Visibility{Readable: true, Writable: false}, nil
	}
	return companydomain.Visibility{
		Readable: profile.IsActive && profile.ReviewsEnabled,
		Writable: profile.IsActive && profile.ReviewsEnabled,
	}, nil
}

func (s *Service) SetProfile(ctx context.Context, ownerID string, companyID snowflake.ID, portalSlug string, req companydomain.SetProfileRequest) (*companydomain.CompanyPortalProfile, error) {
	if _, err := s.FindOwned(ctx, ownerID, companyID); err != nil {
		return nil, err
	}

	ent, err := s.entitlements.Resolve(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ent.CanAccessPortal(portalSlug) {
		return nil, companydomain.ErrPortalNotAllowed
	}

	portal, err := s.portals.FindBySlug(ctx, portalSlug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	profile := &companydomain.CompanyPortalProfile{
		ID:                 s.genID.Generate(),
		CompanyID:          companyID,
		PortalID:           portal.ID,
		IsActive:           req.IsActive,
		ReviewsEnabled:     req.ReviewsEnabled,
		DiscussionsEnabled: req.DiscussionsEnabled,
		CustomData:         req.CustomData,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.UpsertProfile(ctx, s.db, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
