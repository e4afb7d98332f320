// Package domain contains persistence models for companies and their
// per-portal visibility profiles.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Company is a business profile owned by exactly one tenant. Companies are
// never hard-deleted; deactivation hides them from every public surface.
type Company struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	OwnerID            string            `gorm:"column:owner_id;type:text;not null;index" json:"owner_id"`
	Name               string            `gorm:"type:text;not null" json:"name"`
	Slug               string            `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	TaxID              string            `gorm:"column:tax_id;type:text" json:"tax_id,omitempty"`
	Address            string            `gorm:"type:text" json:"address,omitempty"`
	City               string            `gorm:"type:text" json:"city,omitempty"`
	PostalCode         string            `gorm:"column:postal_code;type:text" json:"postal_code,omitempty"`
	Phone              string            `gorm:"type:text" json:"phone,omitempty"`
	Email              string            `gorm:"type:text" json:"email,omitempty"`
	Website            string            `gorm:"type:text" json:"website,omitempty"`
	ExternalReviewLink string            `gorm:"column:external_review_link;type:text" json:"external_review_link,omitempty"`
	Description        string            `gorm:"type:text" json:"description,omitempty"`
	Geolocation        datatypes.JSONMap `gorm:"type:jsonb" json:"geolocation,omitempty"`
	IsActive           bool              `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// CompanyPortalProfile is the per-(company, portal) activation row. Its
// absence means the company has not opted into the portal: writes are denied
// and the company stays out of that portal's search results.
type CompanyPortalProfile struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	CompanyID          snowflake.ID      `gorm:"column:company_id;not null;index:ix_profiles_company_portal,unique,priority:1" json:"company_id"`
	PortalID           snowflake.ID      `gorm:"column:portal_id;not null;index:ix_profiles_company_portal,unique,priority:2" json:"portal_id"`
	IsActive           bool              `gorm:"column:is_active;not null" json:"is_active"`
	ReviewsEnabled     bool              `gorm:"column:reviews_enabled;not null" json:"reviews_enabled"`
	DiscussionsEnabled bool              `gorm:"column:discussions_enabled;not null;default:false" json:"discussions_enabled"`
	CustomData         datatypes.JSONMap `gorm:"column:custom_data;type:jsonb" json:"custom_data,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CompanyPortalProfile) TableName() string { return "company_portal_profiles" }
