// Package batch drives the billing run: rate every account's pending usage,
// fold the results into the balance ledger, then evaluate alerts.
package batch

import (
	"context"

	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	alertdomain "github.com/smallbiznis/quotaledger/internal/alert/domain"
	"github.com/smallbiznis/quotaledger/internal/clock"
	"github.com/smallbiznis/quotaledger/internal/config"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
	"github.com/smallbiznis/quotaledger/internal/observability/metrics"
	ratingdomain "github.com/smallbiznis/quotaledger/internal/rating/domain"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/quotaledger/internal/usage/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	log *zap.Logger

	accounts accountdomain.Repository
	usage    usagedomain.Source
	tariffs  tariffdomain.Resolver
	rating   ratingdomain.Service
	ledger   ledgerdomain.Service
	alerts   alertdomain.Service
	holder   *config.BillingConfigHolder
	clock    clock.Clock
	metrics  *metrics.Metrics
}

type RunnerParams struct {
	fx.In

	Log      *zap.Logger
	Accounts accountdomain.Repository
	Usage    usagedomain.Source
	Tariffs  tariffdomain.Resolver
	Rating   ratingdomain.Service
	Ledger   ledgerdomain.Service
	Alerts   alertdomain.Service
	Holder   *config.BillingConfigHolder
	Clock    clock.Clock
	Metrics  *metrics.Metrics `optional:"true"`
}

func NewRunner(p RunnerParams) *Runner {
	return &Runner{
		log: p.Log.Named("batch.runner"),

		accounts: p.Accounts,
		usage:    p.Usage,
		tariffs:  p.Tariffs,
		rating:   p.Rating,
		ledger:   p.Ledger,
		alerts:   p.Alerts,
		holder:   p.Holder,
		clock:    p.Clock,
		metrics:  p.Metrics,
	}
}

// Run executes one full billing pass. The configuration and the tariff
// snapshot are taken once up front so every account in the pass is rated
// against the same prices. Accounts are processed concurrently but each
// account's own pipeline stays sequential: rate, then reconcile. A failing
// account is logged and skipped, never aborting the batch.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.holder.Snapshot()
	started := r.clock.Now()

	tariffs, err := r.tariffs.ResolveActive(ctx)
	if err != nil {
		return err
	}
	accounts, err := r.accounts.ListAll(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			if err := r.processAccount(gctx, account, tariffs); err != nil {
				r.metrics.IncAccountFailure()
				r.log.Error("account billing failed, skipping",
					zap.Int64("accountId", int64(account.ID)),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := r.alerts.CheckAlerts(ctx, cfg); err != nil {
		r.log.Error("alert pass failed", zap.Error(err))
	}

	elapsed := r.clock.Now().Sub(started)
	r.metrics.ObserveBatchDuration(elapsed)
	r.log.Info("billing batch finished",
		zap.Int("accounts", len(accounts)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func (r *Runner) processAccount(ctx context.Context, account accountdomain.Account, tariffs map[usagetype.UsageType]tariffdomain.Group) error {
	records, err := r.usage.ListPending(ctx, account.ID, account.DomainID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	rated, err := r.rating.RateAccount(ctx, account, records, tariffs)
	if err != nil {
		return err
	}
	return r.ledger.Reconcile(ctx, account, rated)
}
