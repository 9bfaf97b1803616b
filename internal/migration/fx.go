package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	accountdomain "github.com/pagelift/pagelift/internal/account/domain"
	activitydomain "github.com/pagelift/pagelift/internal/activity/domain"
	businessdomain "github.com/pagelift/pagelift/internal/business/domain"
	"github.com/pagelift/pagelift/internal/config"
	"github.com/pagelift/pagelift/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Dev dialects (sqlite, mysql) use the model definitions directly.
			if err := conn.AutoMigrate(
				&accountdomain.User{},
				&businessdomain.Business{},
				&businessdomain.Lead{},
				&activitydomain.ActivityLog{},
			); err != nil {
				return err
			}
		}

		if !cfg.IsProduction() {
			return seed.EnsureDevOwner(conn)
		}
		return nil
	}),
)
