package migration

import (
	campaigndomain "github.com/opiniohq/opinio/internal/campaign/domain"
	companydomain "github.com/opiniohq/opinio/internal/company/domain"
	"github.com/opiniohq/opinio/internal/config"
	portaldomain "github.com/opiniohq/opinio/internal/portal/domain"
	reviewdomain "github.com/opiniohq/opinio/internal/review/domain"
	"github.com/opiniohq/opinio/internal/seed"
	subscriptiondomain "github.com/opiniohq/opinio/internal/subscription/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// AutoMigrate builds the schema from the models. Versioned SQL covers
// postgres; sqlite and mysql development databases take this path.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&portaldomain.Portal{},
		&portaldomain.PortalKey{},
		&companydomain.Company{},
		&companydomain.CompanyPortalProfile{},
		&subscriptiondomain.Subscription{},
		&reviewdomain.Review{},
		&campaigndomain.Customer{},
		&campaigndomain.ReviewCampaign{},
		&campaigndomain.ReviewInvitation{},
	)
}

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
			return seed.EnsurePortals(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		return seed.EnsurePortals(conn)
	}),
)
