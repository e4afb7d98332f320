package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() companydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, company *companydomain.Company) error {
	return db.WithContext(ctx).Create(company).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, company *companydomain.Company) error {
	return db.WithContext(ctx).Save(company).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*companydomain.Company, error) {
	var company companydomain.Company
	err := db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*companydomain.Company, error) {
	var company companydomain.Company
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&company).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *repo) SlugExists(ctx context.Context, db *gorm.DB, slug string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&companydomain.Company{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) CountByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&companydomain.Company{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]companydomain.Company, error) {
	var companies []companydomain.Company
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repo) FindProfile(ctx context.Context, db *gorm.DB, companyID, portalID snowflake.ID) (*companydomain.CompanyPortalProfile, error) {
	var profile companydomain.CompanyPortalProfile
	err := db.WithContext(ctx).
		Where("company_id = ? AND portal_id = ?", companyID, portalID).
		First(&profile).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repo) UpsertProfile(ctx context.Context, db *gorm.DB, profile *companydomain.CompanyPortalProfile) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}, {Name: "portal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_active", "reviews_enabled", "discussions_enabled", "custom_data", "updated_at",
			}),
		}).
		Create(profile).Error
}

// SearchByPortal lists active companies with an active profile row for the
// portal. A missing profile row excludes the company here even though its
// detail page may still render when visited directly.
func (r *repo) SearchByPortal(ctx context.Context, db *gorm.DB, portalID snowflake.ID, query string, limit, offset int) ([]companydomain.SearchResult, int64, error) {
	base := db.WithContext(ctx).
		Table("companies").
		Joins(`JOIN company_portal_profiles ON company_portal_profiles.company_id = companies.id
		       AND company_portal_profiles.portal_id = ? AND company_portal_profiles.is_active = ?`, portalID, true).
		Where("companies.is_active = ?", true)

	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		base = base.Where("LOWER(companies.name) LIKE ? OR LOWER(companies.city) LIKE ?", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []companydomain.SearchResult
	err := base.Session(&gorm.Session{}).
		Select(`companies.*,
		        (SELECT COUNT(*) FROM reviews WHERE reviews.company_id = companies.id
		           AND reviews.portal_id = ? AND reviews.status = ?) AS review_count,
		        COALESCE((SELECT AVG(rating) FROM reviews WHERE reviews.company_id = companies.id
		           AND reviews.portal_id = ? AND reviews.status = ?), 0) AS avg_rating`,
			portalID, "approved", portalID, "approved").
		Order("companies.name ASC").
		Limit(limit).
		Offset(offset).
		Scan(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
