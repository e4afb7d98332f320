package domain

import (
	"context"

	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
)

// Entitlement is the resolved capability set for a tenant.
type Entitlement struct {
	Plan               subscriptiondomain.Plan `json:"plan"`
	PlanName           string                  `json:"plan_name"`
	AllowedPortalSlugs []string                `json:"allowed_portal_slugs"`
	MaxCompanies       int                     `json:"max_companies"`
	HasAnalytics       bool                    `json:"has_analytics"`
	TrialDaysRemaining *int                    `json:"trial_days_remaining,omitempty"`
}

// CanAddCompany reports whether one more company fits the quota.
func (e Entitlement) CanAddCompany(currentCount int) bool {
	return currentCount < e.MaxCompanies
}

// CanAccessPortal reports whether the entitlement covers the portal.
func (e Entitlement) CanAccessPortal(slug string) bool {
	for _, s := range e.AllowedPortalSlugs {
		if s == slug {
			return true
		}
	}
	return false
}

// Service derives a tenant's entitlements from live subscription state.
type Service interface {
	Resolve(ctx context.Context, ownerID string) (Entitlement, error)
}
