// Package domain defines the billing-provider boundary. Checkout and webhook
// plumbing live with the provider; this core consumes only the resulting
// lifecycle events.
package domain

import (
	"context"
	"errors"
	"time"
)

// EventType enumerates the provider lifecycle events the core reacts to.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.completed"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventPaymentFailed       EventType = "payment.failed"
)

// Event is a verified, decoded provider notification. Delivery is
// at-least-once; consumers must dedupe by SubscriptionRef.
type Event struct {
	ID                string     `json:"id"`
	Type              EventType  `json:"type"`
	OwnerID           string     `json:"owner_id"`
	Plan              string     `json:"plan"`
	CustomerRef       string     `json:"customer_ref"`
	SubscriptionRef   string     `json:"subscription_ref"`
	Status            string     `json:"status"`
	TrialEnd          *time.Time `json:"trial_end,omitempty"`
	PeriodStart       *time.Time `json:"period_start,omitempty"`
	PeriodEnd         *time.Time `json:"period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	CanceledAt        *time.Time `json:"canceled_at,omitempty"`
}

// CheckoutRequest asks the provider for a hosted checkout session.
type CheckoutRequest struct {
	OwnerID    string
	Plan       string
	SuccessURL string
	CancelURL  string
}

// Provider is the external billing system boundary.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerRef string) (string, error)
	// VerifyWebhook authenticates the raw payload against the provider
	// signature and decodes the event. An invalid signature is fatal to the
	// request; the provider owns retries.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}

var (
	ErrBadSignature = errors.New("bad_signature")
	ErrUnavailable  = errors.New("billing_provider_unavailable")
)
