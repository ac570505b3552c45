package service

import (
	"context"
	"time"

	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	alertdomain "github.com/smallbiznis/quotaledger/internal/alert/domain"
	"github.com/smallbiznis/quotaledger/internal/clock"
	"github.com/smallbiznis/quotaledger/internal/config"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
	"github.com/smallbiznis/quotaledger/internal/providers/email"
	"github.com/smallbiznis/quotaledger/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// alertCooldown throttles repeat notifications for the same condition.
const alertCooldown = 24 * time.Hour

type Service struct {
	log *zap.Logger

	accounts accountdomain.Repository
	ledger   ledgerdomain.Store
	store    alertdomain.Store
	email    email.Provider
	clock    clock.Clock
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Accounts accountdomain.Repository
	Ledger   ledgerdomain.Store
	Store    alertdomain.Store
	Email    email.Provider
	Clock    clock.Clock
}

func NewService(p Params) alertdomain.Service {
	return &Service{
		log: p.Log.Named("alert.service"),

		accounts: p.Accounts,
		ledger:   p.Ledger,
		store:    p.Store,
		email:    p.Email,
		clock:    p.Clock,
	}
}

// CheckAlerts inspects every account balance view. A failing account is
// logged and skipped; one broken account must not silence alerts for the
// rest.
func (s *Service) CheckAlerts(ctx context.Context, cfg config.BillingRunConfig) error {
	views, err := s.ledger.ListAccountViews(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	for _, view := range views {
		if err := s.checkAccount(ctx, cfg, view, now); err != nil {
			s.log.Error("alert check failed for account",
				zap.Int64("accountId", int64(view.AccountID)),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *Service) checkAccount(ctx context.Context, cfg config.BillingRunConfig, view ledgerdomain.QuotaAccount, now time.Time) error {
	alertType := decideAlert(view)
	if alertType == ledgerdomain.AlertTypeNone {
		return nil
	}

	account, err := s.accounts.FindByID(ctx, view.AccountID)
	if err != nil {
		return err
	}
	if account == nil || account.State == accountdomain.StateDisabled {
		return nil
	}

	locked := false
	if alertType == ledgerdomain.AlertTypeEmpty &&
		cfg.EnforcementEnabled && view.QuotaEnforce && account.Lockable() &&
		account.State != accountdomain.StateLocked {
		if err := s.accounts.Lock(ctx, account.ID); err != nil {
			return err
		}
		locked = true
		s.log.Info("locked account with exhausted quota",
			zap.Int64("accountId", int64(account.ID)),
			zap.String("balance", view.QuotaBalance.String()),
		)
	}

	if !shouldNotify(view, now) {
		return nil
	}

	sent, err := s.sendAlertEmail(ctx, cfg, *account, view, alertType, locked)
	if err != nil {
		return err
	}
	if !sent {
		return nil
	}
	return s.ledger.UpdateAlertState(ctx, view.AccountID, view.DomainID, alertType, now)
}

// decideAlert classifies the balance: negative means exhausted, below the
// configured minimum means low, anything else is healthy. Accounts with no
// minimum configured never get a low warning.
func decideAlert(view ledgerdomain.QuotaAccount) ledgerdomain.AlertType {
	if view.QuotaBalance.IsNegative() {
		return ledgerdomain.AlertTypeEmpty
	}
	if view.QuotaMinBalance.IsPositive() && view.QuotaBalance.LessThan(view.QuotaMinBalance) {
		return ledgerdomain.AlertTypeLow
	}
	return ledgerdomain.AlertTypeNone
}

// shouldNotify suppresses repeats: an account is re-notified only when its
// balance moved after the last alert and the cooldown elapsed.
func shouldNotify(view ledgerdomain.QuotaAccount, now time.Time) bool {
	if view.QuotaAlertDate == nil {
		return true
	}
	return view.QuotaBalanceDate.After(*view.QuotaAlertDate) &&
		now.Sub(*view.QuotaAlertDate) > alertCooldown
}

func (s *Service) sendAlertEmail(
	ctx context.Context,
	cfg config.BillingRunConfig,
	account accountdomain.Account,
	view ledgerdomain.QuotaAccount,
	alertType ledgerdomain.AlertType,
	locked bool,
) (bool, error) {
	if account.Email == "" {
		return false, nil
	}
	enabled, err := s.store.IsTemplateEnabled(ctx, account.ID, alertType)
	if err != nil {
		return false, err
	}
	if !enabled {
		return false, nil
	}

	subject := "Low quota balance for " + account.AccountName
	if alertType == ledgerdomain.AlertTypeEmpty {
		subject = "Quota exhausted for " + account.AccountName
	}

	data := map[string]interface{}{
		"subject":        subject,
		"accountName":    account.AccountName,
		"balance":        money.Display(view.QuotaBalance).String(),
		"minBalance":     money.Display(view.QuotaMinBalance).String(),
		"balanceDate":    view.QuotaBalanceDate.In(cfg.Location()).Format("2006-01-02 15:04 MST"),
		"currencySymbol": cfg.CurrencySymbol,
		"locked":         locked,
	}
	if err := s.email.SendTemplate(ctx, []string{account.Email}, string(alertType), data); err != nil {
		return false, err
	}
	return true, nil
}
