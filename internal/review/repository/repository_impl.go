package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() reviewdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, review *reviewdomain.Review) error {
	return db.WithContext(ctx).Create(review).Error
}

// UpdateContent writes the editable columns only. Status is owned by
// TransitionStatus: an edit committing after a concurrent moderation
// decision must not carry a stale status back in.
func (r *repo) UpdateContent(ctx context.Context, db *gorm.DB, review *reviewdomain.Review) error {
	return db.WithContext(ctx).
		Model(&reviewdomain.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{
			"rating":       review.Rating,
			"title":        review.Title,
			"content":      review.Content,
			"author_name":  review.AuthorName,
			"author_email": review.AuthorEmail,
			"pros":         review.Pros,
			"cons":         review.Cons,
			"updated_at":   review.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&reviewdomain.Review{}, "id = ?", id).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*reviewdomain.Review, error) {
	var review reviewdomain.Review
	err := db.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repo) FindOwned(ctx context.Context, db *gorm.DB, id snowflake.ID, ownerID string) (*reviewdomain.Review, error) {
	var review reviewdomain.Review
	err := db.WithContext(ctx).Raw(
		`SELECT reviews.*
		 FROM reviews
		 JOIN companies ON companies.id = reviews.company_id
		 WHERE reviews.id = ? AND companies.owner_id = ?
		 LIMIT 1`,
		id,
		ownerID,
	).Scan(&review).Error
	if err != nil {
		return nil, err
	}
	if review.ID == 0 {
		return nil, nil
	}
	return &review, nil
}

func (r *repo) TransitionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from []reviewdomain.Status, to reviewdomain.Status) (bool, error) {
	result := db.WithContext(ctx).
		Model(&reviewdomain.Review{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListForOwner(ctx context.Context, db *gorm.DB, ownerID string, req reviewdomain.ListRequest) ([]reviewdomain.Review, int64, error) {
	base := db.WithContext(ctx).
		Table("reviews").
		Joins("JOIN companies ON companies.id = reviews.company_id").
		Where("companies.owner_id = ?", ownerID)

	if req.CompanyID != 0 {
		base = base.Where("reviews.company_id = ?", req.CompanyID)
	}
	if req.Status != "" {
		base = base.Where("reviews.status = ?", req.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := req.Page.Normalize()
	var reviews []reviewdomain.Review
	err := base.Session(&gorm.Session{}).
		Select("reviews.*").
		Order("reviews.review_date DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Scan(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, companyID, portalID snowflake.ID, status reviewdomain.Status, limit, offset int) ([]reviewdomain.Review, int64, error) {
	base := db.WithContext(ctx).
		Model(&reviewdomain.Review{}).
		Where("company_id = ? AND portal_id = ? AND status = ?", companyID, portalID, status)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []reviewdomain.Review
	err := base.Session(&gorm.Session{}).
		Order("review_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}
