package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/alert/domain"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Store {
	return &Repository{db: db}
}

// IsTemplateEnabled reports whether the account receives the given alert
// template. Accounts without a config row are enabled; rows exist to opt out.
func (r *Repository) IsTemplateEnabled(ctx context.Context, accountID snowflake.ID, template ledgerdomain.AlertType) (bool, error) {
	var cfg domain.QuotaEmailConfig
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND template_type = ?", accountID, template).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return cfg.Enabled, nil
}

func (r *Repository) SetTemplateEnabled(ctx context.Context, accountID snowflake.ID, template ledgerdomain.AlertType, enabled bool) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "template_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&domain.QuotaEmailConfig{
		AccountID:    accountID,
		TemplateType: template,
		Enabled:      enabled,
		UpdatedAt:    time.Now().UTC(),
	}).Error
}
