package service

import (
	"context"
	"math"

	"github.com/bwmarrin/snowflake"
	statsdomain "github.com/opiniohq/opinio/internal/stats/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo statsdomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo statsdomain.Repository
}

func New(p Params) statsdomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("stats.service"),
		repo: p.Repo,
	}
}

func (s *Service) StatsFor(ctx context.Context, companyID, portalID snowflake.ID) (*statsdomain.ReviewStats, error) {
	rows, err := s.repo.CountByRating(ctx, s.db, companyID, portalID)
	if err != nil {
		return nil, err
	}

	stats := &statsdomain.ReviewStats{
		CompanyID:    companyID,
		PortalID:     portalID,
		Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var sum int64
	for _, row := range rows {
		if row.Rating < 1 || row.Rating > 5 {
			continue
		}
		stats.Distribution[row.Rating] = row.Count
		stats.ReviewCount += row.Count
		sum += int64(row.Rating) * row.Count
	}
	if stats.ReviewCount > 0 {
		avg := float64(sum) / float64(stats.ReviewCount)
		stats.AvgRating = math.Round(avg*100) / 100
	}
	return stats, nil
}
