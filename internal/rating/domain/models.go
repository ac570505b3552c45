// Package domain contains persistence models for rated usage.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"gorm.io/gorm"
)

// QuotaUsage is the monetary outcome of rating one usage record. Zero-cost
// records never produce a row; their only trace is the calculated marker on
// the usage record itself.
type QuotaUsage struct {
	ID          snowflake.ID        `gorm:"primaryKey"`
	UsageItemID snowflake.ID        `gorm:"not null;uniqueIndex"`
	AccountID   snowflake.ID        `gorm:"not null;index:idx_quota_usages_account"`
	DomainID    snowflake.ID        `gorm:"not null;index:idx_quota_usages_account"`
	ZoneID      snowflake.ID        `gorm:"not null"`
	UsageType   usagetype.UsageType `gorm:"not null"`
	QuotaUsed   decimal.Decimal     `gorm:"type:numeric(15,8);not null"`
	StartDate   time.Time           `gorm:"not null;index"`
	EndDate     time.Time           `gorm:"not null"`
	CreatedAt   time.Time           `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuotaUsage) TableName() string { return "quota_usages" }

// Store persists rated entries and answers the "has this account been rated
// before" question the ledger seeder asks.
type Store interface {
	Insert(ctx context.Context, tx *gorm.DB, usage *QuotaUsage) error
	FindLastBefore(ctx context.Context, accountID, domainID snowflake.ID, before time.Time) (*QuotaUsage, error)
}

var (
	ErrInterpreter    = errors.New("rule_interpreter_unavailable")
	ErrInvalidAccount = errors.New("invalid_account")
)
