package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Service applies billing-provider lifecycle events and serves checkout flows.
type Service interface {
	// StartCheckout creates a provider checkout session for the plan.
	StartCheckout(ctx context.Context, ownerID string, plan Plan) (string, error)
	// BillingPortal creates a provider self-service portal session.
	BillingPortal(ctx context.Context, ownerID string) (string, error)
	// HandleWebhook verifies and applies one provider event. Handlers are
	// idempotent against provider-side retries.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	FindLiveByOwner(ctx context.Context, ownerID string) (*Subscription, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	Update(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByProviderRef(ctx context.Context, db *gorm.DB, providerSubscriptionID string) (*Subscription, error)
	// FindLiveByOwner returns the most recently created subscription whose
	// status is live (active or trialing), or nil.
	FindLiveByOwner(ctx context.Context, db *gorm.DB, ownerID string) (*Subscription, error)
	FindNewestByOwner(ctx context.Context, db *gorm.DB, ownerID string) (*Subscription, error)
}

var (
	ErrInvalidPlan          = errors.New("invalid_plan")
	ErrNoActiveSubscription = errors.New("no_active_subscription")
	ErrBadSignature         = errors.New("bad_signature")
)
