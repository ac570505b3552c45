package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	accountrepo "github.com/smallbiznis/quotaledger/internal/account/repository"
	alertdomain "github.com/smallbiznis/quotaledger/internal/alert/domain"
	alertrepo "github.com/smallbiznis/quotaledger/internal/alert/repository"
	"github.com/smallbiznis/quotaledger/internal/clock"
	"github.com/smallbiznis/quotaledger/internal/config"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/quotaledger/internal/ledger/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type sentMail struct {
	to       []string
	template string
	data     map[string]interface{}
}

type fakeEmail struct {
	sent []sentMail
}

func (f *fakeEmail) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	return nil
}

func (f *fakeEmail) SendTemplate(ctx context.Context, to []string, templateName string, data interface{}) error {
	m, _ := data.(map[string]interface{})
	f.sent = append(f.sent, sentMail{to: to, template: templateName, data: m})
	return nil
}

type fixture struct {
	db    *gorm.DB
	email *fakeEmail
	svc   *Service
	cfg   config.BillingRunConfig
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&accountdomain.Account{},
		&ledgerdomain.QuotaAccount{},
		&alertdomain.QuotaEmailConfig{},
	))

	mail := &fakeEmail{}
	svc := NewService(Params{
		Log:      zap.NewNop(),
		Accounts: accountrepo.New(db, zap.NewNop()),
		Ledger:   ledgerrepo.New(db),
		Store:    alertrepo.New(db),
		Email:    mail,
		Clock:    clock.NewFakeClock(t0),
	})

	cfg := config.DefaultBillingRunConfig()
	cfg.EnforcementEnabled = true

	return &fixture{db: db, email: mail, svc: svc.(*Service), cfg: cfg}
}

func (f *fixture) createAccount(t *testing.T, id int64, typ accountdomain.Type) accountdomain.Account {
	t.Helper()
	acct := accountdomain.Account{
		ID:          snowflake.ID(id),
		DomainID:    3,
		AccountName: fmt.Sprintf("acct-%d", id),
		Email:       fmt.Sprintf("acct-%d@example.com", id),
		Type:        typ,
		State:       accountdomain.StateEnabled,
	}
	require.NoError(t, f.db.Create(&acct).Error)
	return acct
}

func (f *fixture) createView(t *testing.T, accountID int64, balance, minBalance string, enforce bool) {
	t.Helper()
	require.NoError(t, f.db.Create(&ledgerdomain.QuotaAccount{
		AccountID:        snowflake.ID(accountID),
		DomainID:         3,
		QuotaBalance:     decimal.RequireFromString(balance),
		QuotaBalanceDate: t0.Add(-time.Hour),
		QuotaEnforce:     enforce,
		QuotaMinBalance:  decimal.RequireFromString(minBalance),
	}).Error)
}

func (f *fixture) accountState(t *testing.T, id int64) accountdomain.State {
	t.Helper()
	var acct accountdomain.Account
	require.NoError(t, f.db.First(&acct, "id = ?", id).Error)
	return acct.State
}

func TestCheckAlerts_NegativeBalanceLocksAndNotifies(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "-5", "0", true)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))

	require.Equal(t, accountdomain.StateLocked, f.accountState(t, 1))
	require.Len(t, f.email.sent, 1)
	require.Equal(t, "balance_empty", f.email.sent[0].template)
	require.Equal(t, true, f.email.sent[0].data["locked"])

	var view ledgerdomain.QuotaAccount
	require.NoError(t, f.db.First(&view, "account_id = ?", 1).Error)
	require.Equal(t, ledgerdomain.AlertTypeEmpty, view.QuotaAlertType)
	require.NotNil(t, view.QuotaAlertDate)
}

func TestCheckAlerts_EnforcementDisabledNotifiesWithoutLocking(t *testing.T) {
	f := setup(t)
	f.cfg.EnforcementEnabled = false
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "-5", "0", true)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))

	require.Equal(t, accountdomain.StateEnabled, f.accountState(t, 1))
	require.Len(t, f.email.sent, 1)
	require.Equal(t, false, f.email.sent[0].data["locked"])
}

func TestCheckAlerts_AdminAccountNeverLocked(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeAdmin)
	f.createView(t, 1, "-5", "0", true)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Equal(t, accountdomain.StateEnabled, f.accountState(t, 1))
	require.Len(t, f.email.sent, 1)
}

func TestCheckAlerts_LowBalance(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "5", "10", false)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))

	require.Equal(t, accountdomain.StateEnabled, f.accountState(t, 1))
	require.Len(t, f.email.sent, 1)
	require.Equal(t, "balance_low", f.email.sent[0].template)
}

func TestCheckAlerts_NoMinimumMeansNoLowAlert(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "5", "0", false)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Empty(t, f.email.sent)
}

func TestCheckAlerts_CooldownSuppressesRepeat(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "5", "10", false)

	recent := t0.Add(-2 * time.Hour)
	require.NoError(t, f.db.Model(&ledgerdomain.QuotaAccount{}).
		Where("account_id = ?", 1).
		Updates(map[string]any{"quota_alert_date": recent, "quota_alert_type": ledgerdomain.AlertTypeLow}).Error)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Empty(t, f.email.sent)
}

func TestCheckAlerts_RenotifiesAfterBalanceMovesAndCooldown(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "5", "10", false)

	old := t0.Add(-48 * time.Hour)
	require.NoError(t, f.db.Model(&ledgerdomain.QuotaAccount{}).
		Where("account_id = ?", 1).
		Updates(map[string]any{"quota_alert_date": old, "quota_alert_type": ledgerdomain.AlertTypeLow}).Error)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Len(t, f.email.sent, 1)
}

func TestCheckAlerts_DisabledTemplateSkipsEmail(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "5", "10", false)

	require.NoError(t, alertrepo.New(f.db).SetTemplateEnabled(context.Background(), 1, ledgerdomain.AlertTypeLow, false))

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Empty(t, f.email.sent)

	// The alert date stays untouched so the account is re-evaluated once
	// the template is enabled again.
	var view ledgerdomain.QuotaAccount
	require.NoError(t, f.db.First(&view, "account_id = ?", 1).Error)
	require.Nil(t, view.QuotaAlertDate)
}

func TestCheckAlerts_MissingEmailAddress(t *testing.T) {
	f := setup(t)
	acct := f.createAccount(t, 1, accountdomain.TypeNormal)
	acct.Email = ""
	require.NoError(t, f.db.Save(&acct).Error)
	f.createView(t, 1, "5", "10", false)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Empty(t, f.email.sent)
}

func TestCheckAlerts_HealthyBalance(t *testing.T) {
	f := setup(t)
	f.createAccount(t, 1, accountdomain.TypeNormal)
	f.createView(t, 1, "50", "10", true)

	require.NoError(t, f.svc.CheckAlerts(context.Background(), f.cfg))
	require.Empty(t, f.email.sent)
	require.Equal(t, accountdomain.StateEnabled, f.accountState(t, 1))
}
