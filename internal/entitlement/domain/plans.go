// Package domain maps subscription plans onto product capabilities.
package domain

import (
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
)

// Capabilities is the feature set a plan grants. The table below is the
// single source of truth; adding a tier is a data change, not a code change.
type Capabilities struct {
	Name         string
	MaxCompanies int
	PortalSlugs  []string
	Analytics    bool
}

// AllPortalSlugs lists every partner portal in slug form.
var AllPortalSlugs = []string{"dobre-firmy", "arena-biznesu", "panteonfirm"}

// PlanConfig is the plan → capability table.
var PlanConfig = map[subscriptiondomain.Plan]Capabilities{
	subscriptiondomain.PlanFree: {
		Name:         "Free",
		MaxCompanies: 0,
		PortalSlugs:  nil,
		Analytics:    false,
	},
	subscriptiondomain.PlanStart: {
		Name:         "Start",
		MaxCompanies: 1,
		PortalSlugs:  []string{"dobre-firmy"},
		Analytics:    false,
	},
	subscriptiondomain.PlanPro: {
		Name:         "Pro",
		MaxCompanies: 1,
		PortalSlugs:  AllPortalSlugs,
		Analytics:    true,
	},
	subscriptiondomain.PlanBusiness: {
		Name:         "Business",
		MaxCompanies: 3,
		PortalSlugs:  AllPortalSlugs,
		Analytics:    true,
	},
}

// CapabilitiesFor returns the plan's capabilities, defaulting to free.
func CapabilitiesFor(plan subscriptiondomain.Plan) Capabilities {
	if caps, ok := PlanConfig[plan]; ok {
		return caps
	}
	return PlanConfig[subscriptiondomain.PlanFree]
}

// CanAddCompany reports whether one more company fits the plan quota.
func (c Capabilities) CanAddCompany(currentCount int) bool {
	return currentCount < c.MaxCompanies
}

// CanAccessPortal reports whether the plan covers the portal.
func (c Capabilities) CanAccessPortal(slug string) bool {
	for _, s := range c.PortalSlugs {
		if s == slug {
			return true
		}
	}
	return false
}
