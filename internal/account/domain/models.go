// Package domain contains persistence models for billed accounts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Type classifies an account for enforcement purposes.
type Type string

const (
	TypeNormal      Type = "normal"
	TypeAdmin       Type = "admin"
	TypeDomainAdmin Type = "domain_admin"
	TypeProject     Type = "project"
)

// State is the lifecycle state of an account.
type State string

const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
	StateLocked   State = "locked"
)

// Account is a billed tenant. Rating and reconciliation key everything on
// (account, domain).
type Account struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	DomainID    snowflake.ID `gorm:"not null;index"`
	AccountName string       `gorm:"type:text;not null"`
	Email       string       `gorm:"type:text"`
	Type        Type         `gorm:"type:text;not null"`
	State       State        `gorm:"type:text;not null;default:enabled"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Lockable reports whether enforcement may lock this account type.
func (a Account) Lockable() bool {
	return a.Type == TypeNormal || a.Type == TypeDomainAdmin
}

type Repository interface {
	ListAll(ctx context.Context) ([]Account, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	// Lock transitions an enabled account to locked. Locking an already
	// locked account is a no-op; any other state is rejected.
	Lock(ctx context.Context, id snowflake.ID) error
}

var (
	ErrNotFound        = errors.New("account_not_found")
	ErrNotLockable     = errors.New("account_not_lockable")
	ErrInvalidState    = errors.New("account_invalid_state")
	ErrInvalidAccount  = errors.New("invalid_account")
	ErrInvalidDomainID = errors.New("invalid_domain")
)
