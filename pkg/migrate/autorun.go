package migrate

import (
	"context"
	"fmt"

	"github.com/kennahq/kenna-pos-backend/pkg/config"
	"github.com/kennahq/kenna-pos-backend/pkg/db"
	"github.com/kennahq/kenna-pos-backend/pkg/db/models"
	"github.com/kennahq/kenna-pos-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot when the auto-migrate flag is
// on. Outside dev this is a no-op; production schema changes go through the
// migrate binary. SQLite (dev/test) has no goose migrations, so the schema is
// synced from the models instead.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || client == nil {
		return fmt.Errorf("config and db client are required")
	}
	if !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.App.IsProd() {
		if logg != nil {
			logg.Warn(ctx, "auto-migrate flag ignored in prod")
		}
		return nil
	}

	if cfg.DB.Driver == "sqlite" {
		if err := client.DB().WithContext(ctx).AutoMigrate(
			&models.Product{},
			&models.PaymentRecord{},
			&models.OrderRecord{},
			&models.OrderLineItem{},
		); err != nil {
			return fmt.Errorf("sqlite auto-migrate: %w", err)
		}
		if logg != nil {
			logg.Info(ctx, "sqlite schema synced from models")
		}
		return nil
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		return fmt.Errorf("sql db handle: %w", err)
	}
	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return err
	}
	if logg != nil {
		logg.Info(ctx, "dev migrations applied")
	}
	return nil
}
