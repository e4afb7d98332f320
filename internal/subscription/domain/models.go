// Package domain contains persistence models for tenant subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan identifies a subscription tier. Capabilities per plan live in the
// entitlement package's configuration table.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStart    Plan = "start"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

// Status mirrors the billing provider's subscription lifecycle.
type Status string

const (
	StatusActive            Status = "active"
	StatusTrialing          Status = "trialing"
	StatusPastDue           Status = "past_due"
	StatusCanceled          Status = "canceled"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusUnpaid            Status = "unpaid"
)

// Live reports whether a status grants entitlements.
func (s Status) Live() bool {
	return s == StatusActive || s == StatusTrialing
}

// Subscription captures a tenant's billing agreement. Rows are created when a
// checkout completes and mutated only by billing-provider lifecycle events.
type Subscription struct {
	ID                     snowflake.ID  `gorm:"primaryKey" json:"id"`
	OwnerID                string        `gorm:"column:owner_id;type:text;not null;index" json:"owner_id"`
	CompanyID              *snowflake.ID `gorm:"column:company_id" json:"company_id,omitempty"`
	Plan                   Plan          `gorm:"type:text;not null" json:"plan"`
	Status                 Status        `gorm:"type:text;not null" json:"status"`
	ProviderCustomerID     string        `gorm:"column:provider_customer_id;type:text" json:"-"`
	ProviderSubscriptionID string        `gorm:"column:provider_subscription_id;type:text;uniqueIndex" json:"-"`
	TrialEnd               *time.Time    `gorm:"column:trial_end" json:"trial_end,omitempty"`
	CurrentPeriodStart     *time.Time    `gorm:"column:current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time    `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool          `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`
	CanceledAt             *time.Time    `gorm:"column:canceled_at" json:"canceled_at,omitempty"`
	CreatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
