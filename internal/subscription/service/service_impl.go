package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/opiniohq/opinio/internal/providers/billing/domain"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     subscriptiondomain.Repository
	Provider billingdomain.Provider
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     subscriptiondomain.Repository
	provider billingdomain.Provider
}

func New(p Params) subscriptiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("subscription.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		provider: p.Provider,
	}
}

var checkoutPlans = map[subscriptiondomain.Plan]bool{
	subscriptiondomain.PlanStart:    true,
	subscriptiondomain.PlanPro:      true,
	subscriptiondomain.PlanBusiness: true,
}

func (s *Service) StartCheckout(ctx context.Context, ownerID string, plan subscriptiondomain.Plan) (string, error) {
	if !checkoutPlans[plan] {
		return "", subscriptiondomain.ErrInvalidPlan
	}

	return s.provider.CreateCheckoutSession(ctx, billingdomain.CheckoutRequest{
		OwnerID: ownerID,
		Plan:    string(plan),
	})
}

func (s *Service) BillingPortal(ctx context.Context, ownerID string) (string, error) {
	sub, err := s.repo.FindLiveByOwner(ctx, s.db, ownerID)
	if err != nil {
		return "", err
	}
	if sub == nil {
		return "", subscriptiondomain.ErrNoActiveSubscription
	}

	return s.provider.CreatePortalSession(ctx, sub.ProviderCustomerID)
}

func (s *Service) FindLiveByOwner(ctx context.Context, ownerID string) (*subscriptiondomain.Subscription, error) {
	return s.repo.FindLiveByOwner(ctx, s.db, ownerID)
}

// HandleWebhook verifies and applies one provider event. Delivery is
// at-least-once, so every branch upserts by provider subscription ref.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		return subscriptiondomain.ErrBadSignature
	}

	switch event.Type {
	case billingdomain.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)
	case billingdomain.EventSubscriptionUpdated:
		return s.applyUpdate(ctx, event, "")
	case billingdomain.EventSubscriptionDeleted:
		return s.applyUpdate(ctx, event, subscriptiondomain.StatusCanceled)
	case billingdomain.EventPaymentFailed:
		return s.applyUpdate(ctx, event, subscriptiondomain.StatusPastDue)
	default:
		s.log.Info("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, event *billingdomain.Event) error {
	ref := strings.TrimSpace(event.SubscriptionRef)
	if ref == "" || strings.TrimSpace(event.OwnerID) == "" {
		return subscriptiondomain.ErrBadSignature
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByProviderRef(ctx, tx, ref)
		if err != nil {
			return err
		}
		if existing != nil {
			// Duplicate delivery of the same checkout; nothing to do.
			return nil
		}

		now := time.Now().UTC()
		status := subscriptiondomain.Status(event.Status)
		if status == "" {
			status = subscriptiondomain.StatusActive
		}

		sub := &subscriptiondomain.Subscription{
			ID:                     s.genID.Generate(),
			OwnerID:                event.OwnerID,
			Plan:                   subscriptiondomain.Plan(event.Plan),
			Status:                 status,
			ProviderCustomerID:     event.CustomerRef,
			ProviderSubscriptionID: ref,
			TrialEnd:               event.TrialEnd,
			CurrentPeriodStart:     event.PeriodStart,
			CurrentPeriodEnd:       event.PeriodEnd,
			CancelAtPeriodEnd:      event.CancelAtPeriodEnd,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		return s.repo.Insert(ctx, tx, sub)
	})
}

func (s *Service) applyUpdate(ctx context.Context, event *billingdomain.Event, forceStatus subscriptiondomain.Status) error {
	ref := strings.TrimSpace(event.SubscriptionRef)
	if ref == "" {
		return subscriptiondomain.ErrBadSignature
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByProviderRef(ctx, tx, ref)
		if err != nil {
			return err
		}
		if sub == nil {
			// Event for a subscription we never recorded; log and accept so
			// the provider stops retrying.
			s.log.Warn("webhook for unknown subscription", zap.String("ref", ref))
			return nil
		}

		now := time.Now().UTC()
		if forceStatus != "" {
			sub.Status = forceStatus
		} else if event.Status != "" {
			sub.Status = subscriptiondomain.Status(event.Status)
		}
		if event.Plan != "" {
			sub.Plan = subscriptiondomain.Plan(event.Plan)
		}
		if event.TrialEnd != nil {
			sub.TrialEnd = event.TrialEnd
		}
		if event.PeriodStart != nil {
			sub.CurrentPeriodStart = event.PeriodStart
		}
		if event.PeriodEnd != nil {
			sub.CurrentPeriodEnd = event.PeriodEnd
		}
		sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd
		if forceStatus == subscriptiondomain.StatusCanceled {
			if event.CanceledAt != nil {
				sub.CanceledAt = event.CanceledAt
			} else {
				sub.CanceledAt = &now
			}
		}
		sub.UpdatedAt = now

		return s.repo.Update(ctx, tx, sub)
	})
}
