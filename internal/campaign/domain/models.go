// Package domain contains the campaign, customer and invitation models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Customer is a company's end customer, registered by a trusted upstream
// system. One row per (company, email); phone stands in as the dedup key
// when the upstream sends no email, so the email uniqueness is partial.
type Customer struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID      `gorm:"column:company_id;not null;index;uniqueIndex:ix_customers_company_email,priority:1" json:"company_id"`
	Email       string            `gorm:"type:text;uniqueIndex:ix_customers_company_email,priority:2,where:email <> ''" json:"email,omitempty"`
	Phone       string            `gorm:"type:text" json:"phone,omitempty"`
	FirstName   string            `gorm:"column:first_name;type:text" json:"first_name,omitempty"`
	LastName    string            `gorm:"column:last_name;type:text" json:"last_name,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	LastEventAt time.Time         `gorm:"column:last_event_at" json:"last_event_at"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// CampaignStatus is a campaign's dispatch switch.
type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignPaused CampaignStatus = "paused"
)

// ReviewCampaign asks a company's customers for reviews on selected portals.
type ReviewCampaign struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID   `gorm:"column:company_id;not null;index" json:"company_id"`
	Name      string         `gorm:"type:text;not null" json:"name"`
	Portals   pq.StringArray `gorm:"type:text[]" json:"portals"`
	Status    CampaignStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	DelayDays int            `gorm:"column:delay_days;not null;default:0" json:"delay_days"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ReviewCampaign) TableName() string { return "review_campaigns" }

// InvitationStatus is an invitation's delivery-funnel state. States only
// move forward: pending, sent, opened, clicked, converted.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationSent      InvitationStatus = "sent"
	InvitationOpened    InvitationStatus = "opened"
	InvitationClicked   InvitationStatus = "clicked"
	InvitationConverted InvitationStatus = "converted"
)

var invitationRank = map[InvitationStatus]int{
	InvitationPending:   0,
	InvitationSent:      1,
	InvitationOpened:    2,
	InvitationClicked:   3,
	InvitationConverted: 4,
}

// Rank orders funnel states; higher states never move back.
func (s InvitationStatus) Rank() int { return invitationRank[s] }

// ReviewInvitation is a single tokenized ask sent to one customer.
type ReviewInvitation struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	CampaignID snowflake.ID      `gorm:"column:campaign_id;not null;index" json:"campaign_id"`
	CustomerID snowflake.ID      `gorm:"column:customer_id;not null;index" json:"customer_id"`
	CompanyID  snowflake.ID      `gorm:"column:company_id;not null;index" json:"company_id"`
	Token      string            `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Status     InvitationStatus  `gorm:"type:text;not null;default:'pending'" json:"status"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	SendAfter  time.Time         `gorm:"column:send_after" json:"send_after"`
	SentAt     *time.Time        `gorm:"column:sent_at" json:"sent_at,omitempty"`
	ReviewID   *snowflake.ID     `gorm:"column:review_id" json:"review_id,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ReviewInvitation) TableName() string { return "review_invitations" }
