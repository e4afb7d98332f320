// Package domain defines the aggregation read model.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ReviewStats summarizes a company's approved reviews on one portal.
// Only approved reviews count; an empty set yields all zeroes.
type ReviewStats struct {
	CompanyID    snowflake.ID  `json:"company_id"`
	PortalID     snowflake.ID  `json:"portal_id"`
	ReviewCount  int64         `json:"review_count"`
	AvgRating    float64       `json:"avg_rating"`
	Distribution map[int]int64 `json:"distribution"`
}

type Service interface {
	StatsFor(ctx context.Context, companyID, portalID snowflake.ID) (*ReviewStats, error)
}

// RatingRow is one bucket of the grouped rating query.
type RatingRow struct {
	Rating int   `gorm:"column:rating"`
	Count  int64 `gorm:"column:count"`
}

type Repository interface {
	CountByRating(ctx context.Context, db *gorm.DB, companyID, portalID snowflake.ID) ([]RatingRow, error)
}
