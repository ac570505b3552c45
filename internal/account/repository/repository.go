package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/account/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) domain.Repository {
	return &Repository{db: db, log: log.Named("account.repository")}
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

func (r *Repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) Lock(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account domain.Account
		if err := tx.Where("id = ?", id).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		switch account.State {
		case domain.StateLocked:
			return nil
		case domain.StateEnabled:
			return tx.Model(&domain.Account{}).
				Where("id = ?", id).
				Update("state", domain.StateLocked).Error
		default:
			r.log.Info("refusing to lock account in non-enabled state",
				zap.String("account_id", id.String()),
				zap.String("state", string(account.State)))
			return domain.ErrInvalidState
		}
	})
}
