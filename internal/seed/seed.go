package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"gorm.io/gorm"
)

// EnsureDefaultTariffs seeds a zero-value tariff for every known usage type
// that has none yet, so a fresh install rates everything at zero until an
// operator prices it.
func EnsureDefaultTariffs(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, info := range usagetype.All() {
			if err := ensureTariffTx(ctx, tx, node, info); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureTariffTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, info usagetype.Info) error {
	var tariff tariffdomain.QuotaTariff
	err := tx.WithContext(ctx).
		Where("usage_type = ? AND removed IS NULL", info.Type).
		First(&tariff).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	tariff = tariffdomain.QuotaTariff{
		ID:            node.Generate(),
		Name:          info.Name,
		UsageType:     info.Type,
		UsageUnit:     info.Unit,
		CurrencyValue: decimal.Zero,
		EffectiveFrom: now,
		CreatedAt:     now,
	}
	return tx.WithContext(ctx).Create(&tariff).Error
}
