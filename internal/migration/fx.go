package migration

import (
	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	alertdomain "github.com/smallbiznis/quotaledger/internal/alert/domain"
	"github.com/smallbiznis/quotaledger/internal/config"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
	ratingdomain "github.com/smallbiznis/quotaledger/internal/rating/domain"
	"github.com/smallbiznis/quotaledger/internal/seed"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/quotaledger/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations target Postgres. Other dialects
		// (sqlite for local development) fall back to schema sync.
		if cfg.DBType != "postgres" {
			if err := conn.AutoMigrate(
				&accountdomain.Account{},
				&usagedomain.UsageRecord{},
				&tariffdomain.QuotaTariff{},
				&ratingdomain.QuotaUsage{},
				&ledgerdomain.QuotaBalance{},
				&ledgerdomain.QuotaAccount{},
				&alertdomain.QuotaEmailConfig{},
			); err != nil {
				return err
			}
			return seed.EnsureDefaultTariffs(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		return seed.EnsureDefaultTariffs(conn)
	}),
)
