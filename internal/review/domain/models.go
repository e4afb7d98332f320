// Package domain contains the review lifecycle model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is a review's lifecycle state.
//
//	pending ──► approved ──► archived
//	   │
//	   └──────► rejected
//
// approved is the publicly visible state; rejected and archived are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusArchived
}

// Review is a customer opinion about a company, scoped to exactly one portal.
type Review struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID     snowflake.ID `gorm:"column:company_id;not null;index" json:"company_id"`
	PortalID      snowflake.ID `gorm:"column:portal_id;not null;index" json:"portal_id"`
	AuthorName    string       `gorm:"column:author_name;type:text;not null" json:"author_name"`
	AuthorEmail   string       `gorm:"column:author_email;type:text" json:"author_email,omitempty"`
	Rating        int          `gorm:"not null" json:"rating"`
	Title         string       `gorm:"type:text" json:"title,omitempty"`
	Content       string       `gorm:"type:text" json:"content,omitempty"`
	Pros          string       `gorm:"type:text" json:"pros,omitempty"`
	Cons          string       `gorm:"type:text" json:"cons,omitempty"`
	Status        Status       `gorm:"type:text;not null;index" json:"status"`
	ReviewDate    time.Time    `gorm:"column:review_date;not null" json:"review_date"`
	IsVerified    bool         `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	HelpfulCount  int          `gorm:"column:helpful_count;not null;default:0" json:"helpful_count"`
	ResponseCount int          `gorm:"column:response_count;not null;default:0" json:"response_count"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Review) TableName() string { return "reviews" }
