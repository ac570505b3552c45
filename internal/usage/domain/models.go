// Package domain contains persistence models for raw metered usage.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UsageRecord is one immutable metered fact: a quantity of one resource type
// consumed over [StartDate, EndDate). Records are produced by the metering
// collector and consumed exactly once by rating; QuotaCalculated is the
// at-most-once marker.
type UsageRecord struct {
	ID               snowflake.ID        `gorm:"primaryKey"`
	AccountID        snowflake.ID        `gorm:"not null;index:idx_usage_records_account"`
	DomainID         snowflake.ID        `gorm:"not null"`
	ZoneID           snowflake.ID        `gorm:"not null"`
	UsageType        usagetype.UsageType `gorm:"not null"`
	RawUsage         float64             `gorm:"not null"`
	Size             *int64
	StartDate        time.Time         `gorm:"not null"`
	EndDate          time.Time         `gorm:"not null"`
	QuotaCalculated  bool              `gorm:"not null;default:false;index:idx_usage_records_account"`
	ResourceMetadata datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// Source is the usage collaborator contract consumed by rating: pending
// records in start-time order, and the idempotency marker.
type Source interface {
	ListPending(ctx context.Context, accountID, domainID snowflake.ID) ([]UsageRecord, error)
	MarkCalculated(ctx context.Context, tx *gorm.DB, recordID snowflake.ID) error
}

var (
	ErrInvalidRecord  = errors.New("invalid_usage_record")
	ErrAlreadyRated   = errors.New("usage_record_already_rated")
	ErrInvalidPeriod  = errors.New("invalid_usage_period")
	ErrInvalidAccount = errors.New("invalid_account")
)
