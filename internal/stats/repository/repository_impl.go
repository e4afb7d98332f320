package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	statsdomain "github.com/opiniohq/opinio/internal/stats/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() statsdomain.Repository {
	return &repo{}
}

func (r *repo) CountByRating(ctx context.Context, db *gorm.DB, companyID, portalID snowflake.ID) ([]statsdomain.RatingRow, error) {
	var rows []statsdomain.RatingRow
	err := db.WithContext(ctx).Raw(
		`SELECT rating, COUNT(*) AS count
		 FROM reviews
		 WHERE company_id = ? AND portal_id = ? AND status = 'approved'
		 GROUP BY rating`,
		companyID,
		portalID,
	).Scan(&rows).Error
	return rows, err
}
