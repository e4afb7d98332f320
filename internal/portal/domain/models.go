// Package domain contains persistence models for portals and their API keys.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Portal is a partner front-end authorized to read and write review data.
// Portals are reference data; they are provisioned by operators, not tenants.
type Portal struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"type:text;not null" json:"name"`
	Slug      string            `gorm:"type:text;not null;uniqueIndex" json:"slug"`
	Domain    string            `gorm:"type:text" json:"domain,omitempty"`
	Settings  datatypes.JSONMap `gorm:"type:jsonb" json:"settings,omitempty"`
	IsActive  bool              `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Portal) TableName() string { return "portals" }

// PortalKey stores the hashed API credential for a portal.
// The plaintext key is never persisted.
type PortalKey struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	PortalID   snowflake.ID `gorm:"column:portal_id;not null;index" json:"portal_id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	KeyHash    string       `gorm:"column:key_hash;type:text;not null;uniqueIndex" json:"-"`
	RateLimit  int          `gorm:"column:rate_limit;not null;default:60" json:"rate_limit"`
	Active     bool         `gorm:"not null" json:"active"`
	LastUsedAt *time.Time   `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PortalKey) TableName() string { return "portal_keys" }
