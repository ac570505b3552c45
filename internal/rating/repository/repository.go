package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/rating/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Store {
	return &Repository{db: db}
}

// Insert persists one rated entry. The unique index on usage_item_id makes a
// forced re-rate of an already rated record a no-op instead of a double charge.
func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, usage *domain.QuotaUsage) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "usage_item_id"}},
		DoNothing: true,
	}).Create(usage).Error
}

// FindLastBefore returns the newest rated entry starting before the given
// instant, or nil when the account has never been rated in that window.
func (r *Repository) FindLastBefore(ctx context.Context, accountID, domainID snowflake.ID, before time.Time) (*domain.QuotaUsage, error) {
	var usage domain.QuotaUsage
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND domain_id = ? AND start_date < ?", accountID, domainID, before).
		Order("start_date DESC, id DESC").
		First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usage, nil
}
