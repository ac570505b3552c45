package repository

import (
	"context"

	"github.com/smallbiznis/quotaledger/internal/tariff/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &Repository{db: db}
}

// ListActive returns every tariff that has not been soft-deleted. Period
// filtering against individual usage records happens in the rating pass, so
// the resolver needs the full non-removed set.
func (r *Repository) ListActive(ctx context.Context) ([]domain.QuotaTariff, error) {
	var tariffs []domain.QuotaTariff
	err := r.db.WithContext(ctx).
		Where("removed IS NULL").
		Order("usage_type ASC, effective_from ASC").
		Find(&tariffs).Error
	return tariffs, err
}
