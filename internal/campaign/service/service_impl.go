package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	"github.com/opiniohq/opinio/internal/clock"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      campaigndomain.Repository
	Companies companydomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      campaigndomain.Repository
	companies companydomain.Service
}

func New(p Params) campaigndomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("campaign.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		companies: p.Companies,
	}
}

func (s *Service) CreateCampaign(ctx context.Context, ownerID string, req campaigndomain.CreateCampaignRequest) (*campaigndomain.ReviewCampaign, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, campaigndomain.ErrInvalidName
	}
	portals := normalizePortals(req.Portals)
	if len(portals) == 0 {
		return nil, campaigndomain.ErrInvalidPortals
	}
	if _, err := s.companies.FindOwned(ctx, ownerID, req.CompanyID); err != nil {
		if err == companydomain.ErrNotFound {
			return nil, campaigndomain.ErrNotFound
		}
		return nil, err
	}

	now := s.clock.Now().UTC()
	campaign := &campaigndomain.ReviewCampaign{
		ID:        s.genID.Generate(),
		CompanyID: req.CompanyID,
		Name:      name,
		Portals:   portals,
		Status:    campaigndomain.CampaignActive,
		DelayDays: req.DelayDays,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertCampaign(ctx, s.db, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *Service) UpdateCampaign(ctx context.Context, ownerID string, campaignID snowflake.ID, req campaigndomain.UpdateCampaignRequest) (*campaigndomain.ReviewCampaign, error) {
	campaign, err := s.findOwnedCampaign(ctx, campaignID, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, campaigndomain.ErrInvalidName
		}
		campaign.Name = name
	}
	if req.Portals != nil {
		portals := normalizePortals(req.Portals)
		if len(portals) == 0 {
			return nil, campaigndomain.ErrInvalidPortals
		}
		campaign.Portals = portals
	}
	if req.Status != nil {
		campaign.Status = *req.Status
	}
	if req.DelayDays != nil {
		campaign.DelayDays = *req.DelayDays
	}

	campaign.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.SaveCampaign(ctx, s.db, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *Service) DeleteCampaign(ctx context.Context, ownerID string, campaignID snowflake.ID) error {
	if _, err := s.findOwnedCampaign(ctx, campaignID, ownerID); err != nil {
		return err
	}
	return s.repo.DeleteCampaign(ctx, s.db, campaignID)
}

func (s *Service) ListCampaigns(ctx context.Context, ownerID string, companyID snowflake.ID) ([]campaigndomain.ReviewCampaign, error) {
	if _, err := s.companies.FindOwned(ctx, ownerID, companyID); err != nil {
		if err == companydomain.ErrNotFound {
			return nil, campaigndomain.ErrNotFound
		}
		return nil, err
	}
	return s.repo.ListCampaignsByCompany(ctx, s.db, companyID)
}

func (s *Service) RegisterCustomerEvent(ctx context.Context, req campaigndomain.CustomerEventRequest) (*campaigndomain.Customer, []campaigndomain.ReviewInvitation, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return nil, nil, campaigndomain.ErrInvalidContact
	}

	company, err := s.companies.GetBySlug(ctx, req.CompanySlug)
	if err != nil {
		if err == companydomain.ErrNotFound {
			return nil, nil, campaigndomain.ErrNotFound
		}
		return nil, nil, err
	}

	eventAt := req.EventAt
	if eventAt.IsZero() {
		eventAt = s.clock.Now().UTC()
	}

	var (
		customer    *campaigndomain.Customer
		invitations []campaigndomain.ReviewInvitation
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		customer, err = s.repo.UpsertCustomer(ctx, tx, &campaigndomain.Customer{
			ID:          s.genID.Generate(),
			CompanyID:   company.ID,
			Email:       email,
			Phone:       phone,
			FirstName:   strings.TrimSpace(req.FirstName),
			LastName:    strings.TrimSpace(req.LastName),
			Metadata:    req.Metadata,
			LastEventAt: eventAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}

		campaigns, err := s.repo.ListActiveCampaignsByCompany(ctx, tx, company.ID)
		if err != nil {
			return err
		}
		for _, campaign := range campaigns {
			open, err := s.repo.HasOpenInvitation(ctx, tx, campaign.ID, customer.ID)
			if err != nil {
				return err
			}
			if open {
				continue
			}

			token, err := newToken()
			if err != nil {
				return err
			}
			// The event metadata is snapshotted on the invitation so the
			// ask keeps its originating context even after later events
			// rewrite the customer row.
			invitation := campaigndomain.ReviewInvitation{
				ID:         s.genID.Generate(),
				CampaignID: campaign.ID,
				CustomerID: customer.ID,
				CompanyID:  company.ID,
				Token:      token,
				Status:     campaigndomain.InvitationPending,
				Metadata:   req.Metadata,
				SendAfter:  eventAt.AddDate(0, 0, campaign.DelayDays),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.repo.InsertInvitation(ctx, tx, &invitation); err != nil {
				return err
			}
			invitations = append(invitations, invitation)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("customer event registered",
		zap.Int64("company_id", company.ID.Int64()),
		zap.Int("invitations", len(invitations)),
	)
	return customer, invitations, nil
}

func (s *Service) ResolveToken(ctx context.Context, token string) (*campaigndomain.InvitationView, error) {
	invitation, err := s.repo.FindInvitationByToken(ctx, s.db, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if invitation == nil {
		return nil, campaigndomain.ErrTokenNotFound
	}

	campaign, err := s.repo.FindCampaignByID(ctx, s.db, invitation.CampaignID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AdvanceInvitation(ctx, s.db, invitation.ID, campaigndomain.InvitationClicked, nil); err != nil {
		return nil, err
	}

	company, err := s.companies.GetByID(ctx, invitation.CompanyID)
	if err != nil {
		return nil, err
	}

	view := &campaigndomain.InvitationView{
		InvitationID: invitation.ID,
		CompanyID:    invitation.CompanyID,
		CompanyName:  company.Name,
		CompanySlug:  company.Slug,
		Status:       maxStatus(invitation.Status, campaigndomain.InvitationClicked),
	}
	if campaign != nil {
		view.Portals = campaign.Portals
	}
	return view, nil
}

func (s *Service) ConvertToken(ctx context.Context, token string, reviewID snowflake.ID) error {
	invitation, err := s.repo.FindInvitationByToken(ctx, s.db, strings.TrimSpace(token))
	if err != nil {
		return err
	}
	if invitation == nil {
		return campaigndomain.ErrTokenNotFound
	}
	if invitation.Status == campaigndomain.InvitationConverted {
		return nil
	}
	return s.repo.AdvanceInvitation(ctx, s.db, invitation.ID, campaigndomain.InvitationConverted, &reviewID)
}

func (s *Service) ListInvitations(ctx context.Context, ownerID string, campaignID snowflake.ID) ([]campaigndomain.ReviewInvitation, error) {
	if _, err := s.findOwnedCampaign(ctx, campaignID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListInvitationsByCampaign(ctx, s.db, campaignID)
}

func (s *Service) findOwnedCampaign(ctx context.Context, campaignID snowflake.ID, ownerID string) (*campaigndomain.ReviewCampaign, error) {
	campaign, err := s.repo.FindOwnedCampaign(ctx, s.db, campaignID, ownerID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, campaigndomain.ErrNotFound
	}
	return campaign, nil
}

func normalizePortals(portals []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range portals {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func maxStatus(a, b campaigndomain.InvitationStatus) campaigndomain.InvitationStatus {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
