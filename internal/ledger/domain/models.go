// Package domain contains the balance ledger models: append-only balance
// rows plus the per-account rollup view.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	ratingdomain "github.com/smallbiznis/quotaledger/internal/rating/domain"
	"gorm.io/gorm"
)

// QuotaBalance is one append-only ledger row. CreditsID distinguishes the
// two row kinds: zero marks a reconciled balance snapshot, non-zero marks a
// credit posting and carries the credit's own id. Snapshots are never
// updated in place; corrections appear as newer rows.
type QuotaBalance struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	AccountID     snowflake.ID    `gorm:"not null;index:idx_quota_balances_account"`
	DomainID      snowflake.ID    `gorm:"not null;index:idx_quota_balances_account"`
	CreditBalance decimal.Decimal `gorm:"type:numeric(15,8);not null"`
	CreditsID     snowflake.ID    `gorm:"not null;default:0"`
	UpdatedOn     time.Time       `gorm:"not null;index"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuotaBalance) TableName() string { return "quota_balances" }

// IsSnapshot reports whether the row is a reconciled balance snapshot
// rather than a credit posting.
func (b QuotaBalance) IsSnapshot() bool { return b.CreditsID == 0 }

// AlertType records which notification an account last received.
type AlertType string

const (
	AlertTypeNone  AlertType = ""
	AlertTypeLow   AlertType = "balance_low"
	AlertTypeEmpty AlertType = "balance_empty"
)

// QuotaAccount is the per-account rollup the read paths and the alert pass
// consume. The authoritative history stays in quota_balances; this row is a
// cache of the newest snapshot plus the alerting state.
type QuotaAccount struct {
	AccountID         snowflake.ID    `gorm:"primaryKey"`
	DomainID          snowflake.ID    `gorm:"not null;index"`
	QuotaBalance      decimal.Decimal `gorm:"type:numeric(15,8);not null"`
	QuotaBalanceDate  time.Time       `gorm:"not null"`
	QuotaEnforce      bool            `gorm:"not null;default:false"`
	QuotaMinBalance   decimal.Decimal `gorm:"type:numeric(15,8);not null;default:0"`
	QuotaAlertDate    *time.Time
	QuotaAlertType    AlertType `gorm:"type:text;not null;default:''"`
	LastStatementDate *time.Time
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (QuotaAccount) TableName() string { return "quota_accounts" }

// Store is the ledger persistence contract.
type Store interface {
	AppendBalance(ctx context.Context, tx *gorm.DB, balance *QuotaBalance) error

	// LastSnapshotBefore returns the newest balance snapshot (credit rows
	// excluded) strictly before the given instant, or nil.
	LastSnapshotBefore(ctx context.Context, accountID, domainID snowflake.ID, before time.Time) (*QuotaBalance, error)

	// CreditsBetween sums credit postings with updated_on in [since, until).
	CreditsBetween(ctx context.Context, accountID, domainID snowflake.ID, since, until time.Time) (decimal.Decimal, error)

	UpsertAccountView(ctx context.Context, view *QuotaAccount) error
	FindAccountView(ctx context.Context, accountID, domainID snowflake.ID) (*QuotaAccount, error)
	ListAccountViews(ctx context.Context) ([]QuotaAccount, error)
	UpdateAlertState(ctx context.Context, accountID, domainID snowflake.ID, alertType AlertType, alertDate time.Time) error
}

// Service folds rated usage into the balance ledger and answers balance
// queries.
type Service interface {
	// Reconcile folds one account's freshly rated entries, in record
	// order, into balance snapshots.
	Reconcile(ctx context.Context, account accountdomain.Account, usages []ratingdomain.QuotaUsage) error

	// CurrentBalance is the newest snapshot plus credits posted since.
	CurrentBalance(ctx context.Context, accountID, domainID snowflake.ID) (decimal.Decimal, error)

	// AddCredit posts a credit to the account ledger.
	AddCredit(ctx context.Context, accountID, domainID snowflake.ID, amount decimal.Decimal) error
}

var (
	ErrInvalidAccount = errors.New("invalid_account")
	ErrInvalidAmount  = errors.New("invalid_credit_amount")
)
