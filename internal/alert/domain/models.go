// Package domain contains the alerting models: per-account email template
// toggles and the alert check contract.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/config"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
)

// QuotaEmailConfig is a per-account toggle for one alert template. Accounts
// without a row receive every template; a row exists only to opt out (or
// explicitly back in).
type QuotaEmailConfig struct {
	AccountID    snowflake.ID           `gorm:"primaryKey"`
	TemplateType ledgerdomain.AlertType `gorm:"primaryKey;type:text"`
	Enabled      bool                   `gorm:"not null;default:true"`
	UpdatedAt    time.Time              `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuotaEmailConfig) TableName() string { return "quota_email_configs" }

type Store interface {
	// IsTemplateEnabled defaults to true when the account has no row for
	// the template.
	IsTemplateEnabled(ctx context.Context, accountID snowflake.ID, template ledgerdomain.AlertType) (bool, error)
	SetTemplateEnabled(ctx context.Context, accountID snowflake.ID, template ledgerdomain.AlertType, enabled bool) error
}

// Service walks the account balance views after a billing run and sends
// low-balance and exhausted-balance notifications, locking exhausted
// accounts when enforcement is on.
type Service interface {
	CheckAlerts(ctx context.Context, cfg config.BillingRunConfig) error
}
