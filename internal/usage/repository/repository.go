package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/usage/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Source {
	return &Repository{db: db}
}

// ListPending returns the account's unrated records ordered by start time.
// The order is load-bearing: the ledger reconciler folds entries forward and
// out-of-order application corrupts balances.
func (r *Repository) ListPending(ctx context.Context, accountID, domainID snowflake.ID) ([]domain.UsageRecord, error) {
	var records []domain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND domain_id = ? AND quota_calculated = ?", accountID, domainID, false).
		Order("start_date ASC, id ASC").
		Find(&records).Error
	return records, err
}

func (r *Repository) MarkCalculated(ctx context.Context, tx *gorm.DB, recordID snowflake.ID) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Model(&domain.UsageRecord{}).
		Where("id = ?", recordID).
		Update("quota_calculated", true).Error
}
