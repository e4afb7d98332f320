package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() portaldomain.Repository {
	return &repo{}
}

func (r *repo) InsertKey(ctx context.Context, db *gorm.DB, key *portaldomain.PortalKey) error {
	return db.WithContext(ctx).Create(key).Error
}

func (r *repo) UpdateKey(ctx context.Context, db *gorm.DB, key *portaldomain.PortalKey) error {
	return db.WithContext(ctx).Save(key).Error
}

func (r *repo) FindKeyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*portaldomain.PortalKey, error) {
	var key portaldomain.PortalKey
	err := db.WithContext(ctx).Where("id = ?", id).First(&key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *repo) FindActiveKeyByHash(ctx context.Context, db *gorm.DB, hash string) (*portaldomain.KeyRecord, error) {
	var record portaldomain.KeyRecord
	err := db.WithContext(ctx).Raw(
		`SELECT portal_keys.id, portal_keys.portal_id, portal_keys.key_hash,
		        portals.slug AS portal_slug, portals.is_active AS portal_live
		 FROM portal_keys
		 JOIN portals ON portals.id = portal_keys.portal_id
		 WHERE portal_keys.key_hash = ? AND portal_keys.active = ?
		 LIMIT 1`,
		hash,
		true,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) TouchLastUsed(ctx context.Context, db *gorm.DB, keyID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&portaldomain.PortalKey{}).
		Where("id = ?", keyID).
		Update("last_used_at", time.Now().UTC()).Error
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*portaldomain.Portal, error) {
	var portal portaldomain.Portal
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&portal).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &portal, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]portaldomain.Portal, error) {
	var portals []portaldomain.Portal
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&portals).Error
	if err != nil {
		return nil, err
	}
	return portals, nil
}
