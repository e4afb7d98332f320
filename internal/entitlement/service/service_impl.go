package service

import (
	"context"
	"math"

	"github.com/opiniohq/opinio/internal/clock"
	entitlementdomain "github.com/opiniohq/opinio/internal/entitlement/domain"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  subscriptiondomain.Repository
}

func New(p Params) entitlementdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("entitlement.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Resolve selects the live subscription and maps its plan onto capabilities.
// A live-status row always outranks a newer non-live row; no live row means
// the free tier.
func (s *Service) Resolve(ctx context.Context, ownerID string) (entitlementdomain.Entitlement, error) {
	sub, err := s.repo.FindLiveByOwner(ctx, s.db, ownerID)
	if err != nil {
		return entitlementdomain.Entitlement{}, err
	}

	plan := subscriptiondomain.PlanFree
	var trialDays *int
	if sub != nil {
		plan = sub.Plan
		trialDays = s.trialDaysRemaining(sub)
	}

	caps := entitlementdomain.CapabilitiesFor(plan)
	return entitlementdomain.Entitlement{
		Plan:               plan,
		PlanName:           caps.Name,
		AllowedPortalSlugs: caps.PortalSlugs,
		MaxCompanies:       caps.MaxCompanies,
		HasAnalytics:       caps.Analytics,
		TrialDaysRemaining: trialDays,
	}, nil
}

func (s *Service) trialDaysRemaining(sub *subscriptiondomain.Subscription) *int {
	if sub.TrialEnd == nil {
		return nil
	}
	now := s.clock.Now()
	if !sub.TrialEnd.After(now) {
		return nil
	}
	days := int(math.Ceil(sub.TrialEnd.Sub(now).Hours() / 24))
	return &days
}
