package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service resolves portal credentials and provisions keys.
type Service interface {
	// Verify resolves an opaque API key plus the caller-claimed portal slug
	// to a portal identity. Any mismatch collapses into ErrUnauthorized.
	Verify(ctx context.Context, apiKey, portalSlug string) (snowflake.ID, error)

	FindBySlug(ctx context.Context, slug string) (*Portal, error)
	ListActive(ctx context.Context) ([]Portal, error)

	// IssueKey generates a new key for a portal. The plaintext is returned
	// exactly once; only its hash is stored.
	IssueKey(ctx context.Context, portalID snowflake.ID, name string) (*SecretResponse, error)
	RevokeKey(ctx context.Context, keyID snowflake.ID) error
}

// SecretResponse carries a freshly issued plaintext key.
type SecretResponse struct {
	KeyID  snowflake.ID `json:"key_id"`
	APIKey string       `json:"api_key"`
}

// KeyRecord is the verification projection of a key joined with its portal.
type KeyRecord struct {
	ID         snowflake.ID `gorm:"column:id"`
	PortalID   snowflake.ID `gorm:"column:portal_id"`
	KeyHash    string       `gorm:"column:key_hash"`
	PortalSlug string       `gorm:"column:portal_slug"`
	PortalLive bool         `gorm:"column:portal_live"`
}

type Repository interface {
	InsertKey(ctx context.Context, db *gorm.DB, key *PortalKey) error
	UpdateKey(ctx context.Context, db *gorm.DB, key *PortalKey) error
	FindKeyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PortalKey, error)
	FindActiveKeyByHash(ctx context.Context, db *gorm.DB, hash string) (*KeyRecord, error)
	TouchLastUsed(ctx context.Context, db *gorm.DB, keyID snowflake.ID) error
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Portal, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Portal, error)
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidName    = errors.New("invalid_name")
	ErrPortalNotFound = errors.New("portal_not_found")
	ErrKeyNotFound    = errors.New("key_not_found")
)
