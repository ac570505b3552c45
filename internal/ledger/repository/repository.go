package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Store {
	return &Repository{db: db}
}

func (r *Repository) AppendBalance(ctx context.Context, tx *gorm.DB, balance *domain.QuotaBalance) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(balance).Error
}

func (r *Repository) LastSnapshotBefore(ctx context.Context, accountID, domainID snowflake.ID, before time.Time) (*domain.QuotaBalance, error) {
	var balance domain.QuotaBalance
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND domain_id = ? AND credits_id = 0 AND updated_on < ?", accountID, domainID, before).
		Order("updated_on DESC, id DESC").
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) CreditsBetween(ctx context.Context, accountID, domainID snowflake.ID, since, until time.Time) (decimal.Decimal, error) {
	var rows []domain.QuotaBalance
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND domain_id = ? AND credits_id <> 0 AND updated_on >= ? AND updated_on < ?",
			accountID, domainID, since, until).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}

	// Summed in Go rather than SQL so the numeric column never round-trips
	// through a driver float.
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.CreditBalance)
	}
	return total, nil
}

func (r *Repository) UpsertAccountView(ctx context.Context, view *domain.QuotaAccount) error {
	view.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"quota_balance", "quota_balance_date", "updated_at",
		}),
	}).Create(view).Error
}

func (r *Repository) FindAccountView(ctx context.Context, accountID, domainID snowflake.ID) (*domain.QuotaAccount, error) {
	var view domain.QuotaAccount
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND domain_id = ?", accountID, domainID).
		First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *Repository) ListAccountViews(ctx context.Context) ([]domain.QuotaAccount, error) {
	var views []domain.QuotaAccount
	err := r.db.WithContext(ctx).Order("account_id ASC").Find(&views).Error
	return views, err
}

func (r *Repository) UpdateAlertState(ctx context.Context, accountID, domainID snowflake.ID, alertType domain.AlertType, alertDate time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.QuotaAccount{}).
		Where("account_id = ? AND domain_id = ?", accountID, domainID).
		Updates(map[string]any{
			"quota_alert_type": alertType,
			"quota_alert_date": alertDate,
			"updated_at":       time.Now().UTC(),
		}).Error
}
