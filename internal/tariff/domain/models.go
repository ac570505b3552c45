// Package domain contains persistence models for quota tariffs.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
)

// QuotaTariff prices one usage type over a validity window. Several tariffs
// may be active for the same type at once (base price plus surcharges);
// rating sums every tariff whose window overlaps the usage record.
type QuotaTariff struct {
	ID             snowflake.ID        `gorm:"primaryKey"`
	Name           string              `gorm:"type:text;not null"`
	UsageType      usagetype.UsageType `gorm:"not null;index"`
	UsageUnit      usagetype.Unit      `gorm:"type:text;not null"`
	CurrencyValue  decimal.Decimal     `gorm:"type:numeric(15,8);not null"`
	EffectiveFrom  time.Time           `gorm:"not null"`
	EffectiveTo    *time.Time
	ActivationRule string     `gorm:"type:text"`
	Removed        *time.Time `gorm:"index"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuotaTariff) TableName() string { return "quota_tariffs" }

// HasActivationRule reports whether the tariff carries a conditional rule.
// Blank rules are unconditional.
func (t QuotaTariff) HasActivationRule() bool {
	return strings.TrimSpace(t.ActivationRule) != ""
}

// AppliesTo reports whether the tariff window overlaps the usage interval
// [start, end). The tariff validity is half-open: a tariff ending exactly at
// the record's start does not apply.
func (t QuotaTariff) AppliesTo(start, end time.Time) bool {
	if t.EffectiveFrom.After(end) {
		return false
	}
	if t.EffectiveTo != nil && !t.EffectiveTo.After(start) {
		return false
	}
	return true
}

// ValidAt reports whether the tariff is in force at the given instant,
// used when quoting hypothetical resources against current prices.
func (t QuotaTariff) ValidAt(now time.Time) bool {
	if t.EffectiveFrom.After(now) {
		return false
	}
	if t.EffectiveTo != nil && t.EffectiveTo.Before(now) {
		return false
	}
	return true
}

// Group is the per-usage-type resolution result: every non-removed tariff of
// that type plus whether any of them carries an activation rule. The flag
// lets rating skip preset-variable construction when no rule can run.
type Group struct {
	Tariffs           []QuotaTariff
	HasActivationRule bool
}

// Resolver resolves tariff groups once per billing run; the snapshot is
// shared by every account in the run.
type Resolver interface {
	ResolveActive(ctx context.Context) (map[usagetype.UsageType]Group, error)
}

type Repository interface {
	ListActive(ctx context.Context) ([]QuotaTariff, error)
}

var (
	ErrInvalidTariff    = errors.New("invalid_tariff")
	ErrInvalidUsageType = errors.New("invalid_usage_type")
	ErrInvalidValue     = errors.New("invalid_currency_value")
)
