package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	"github.com/smallbiznis/quotaledger/internal/clock"
	ledgerdomain "github.com/smallbiznis/quotaledger/internal/ledger/domain"
	"github.com/smallbiznis/quotaledger/internal/observability/metrics"
	ratingdomain "github.com/smallbiznis/quotaledger/internal/rating/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log *zap.Logger

	genID       *snowflake.Node
	store       ledgerdomain.Store
	ratingStore ratingdomain.Store
	clock       clock.Clock
	metrics     *metrics.Metrics
}

type Params struct {
	fx.In

	Log         *zap.Logger
	GenID       *snowflake.Node
	Store       ledgerdomain.Store
	RatingStore ratingdomain.Store
	Clock       clock.Clock
	Metrics     *metrics.Metrics `optional:"true"`
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		log: p.Log.Named("ledger.service"),

		genID:       p.GenID,
		store:       p.Store,
		ratingStore: p.RatingStore,
		clock:       p.Clock,
		metrics:     p.Metrics,
	}
}

// reconcileState drives the reconciliation pass over one account's rated
// entries. Seeding establishes the open window's starting balance,
// Accumulating folds entries into it until one opens a new window, and
// Flushing persists the snapshot and advances.
type reconcileState int

const (
	stateSeeding reconcileState = iota
	stateAccumulating
	stateFlushing
)

// Reconcile folds the account's rated entries into balance snapshots. The
// pass walks the entries in record order, consolidating entries that share a
// start instant into one window, and flushes a snapshot whenever the window
// advances. Each snapshot is the previous snapshot plus credits posted since
// it, minus the window's cost.
func (s *Service) Reconcile(ctx context.Context, account accountdomain.Account, usages []ratingdomain.QuotaUsage) error {
	if account.ID == 0 {
		return ledgerdomain.ErrInvalidAccount
	}
	if len(usages) == 0 {
		return nil
	}

	accountID := account.ID
	domainID := account.DomainID

	var (
		state       = stateSeeding
		windowStart = usages[0].StartDate
		windowEnd   = windowStart
		aggregated  = decimal.Zero
		next        = 0
		opening     = true
	)

loop:
	for {
		switch state {
		case stateSeeding:
			// An account rated for the first time opens with whatever
			// credits were posted before its first usage, and that
			// opening balance is persisted so later runs have a snapshot
			// to build on. Every other window seeds from the newest
			// snapshot plus credits since.
			if opening {
				opening = false
				lastRated, err := s.ratingStore.FindLastBefore(ctx, accountID, domainID, windowStart)
				if err != nil {
					return err
				}
				if lastRated == nil {
					credits, err := s.store.CreditsBetween(ctx, accountID, domainID, time.Time{}, windowStart)
					if err != nil {
						return err
					}
					aggregated = credits
					if err := s.appendSnapshot(ctx, accountID, domainID, aggregated, windowStart); err != nil {
						return err
					}
					state = stateAccumulating
					continue
				}
			}
			seed, err := s.seedBalance(ctx, accountID, domainID, windowEnd)
			if err != nil {
				return err
			}
			aggregated = seed
			state = stateAccumulating

		case stateAccumulating:
			if next == len(usages) {
				state = stateFlushing
				continue
			}
			usage := usages[next]
			switch {
			case usage.QuotaUsed.IsZero():
				// Zero-cost entries never open a window, but credits
				// posted during their own span still count.
				credits, err := s.store.CreditsBetween(ctx, accountID, domainID, usage.StartDate, usage.EndDate)
				if err != nil {
					return err
				}
				aggregated = aggregated.Add(credits)
				next++
			case usage.StartDate.Equal(windowStart):
				// Entries sharing a start instant consolidate into the
				// open window instead of producing one snapshot each.
				aggregated = aggregated.Sub(usage.QuotaUsed)
				next++
			default:
				state = stateFlushing
			}

		case stateFlushing:
			if err := s.appendSnapshot(ctx, accountID, domainID, aggregated, windowEnd); err != nil {
				return err
			}
			if next == len(usages) {
				break loop
			}
			windowStart = usages[next].StartDate
			windowEnd = usages[next].EndDate
			state = stateSeeding
		}
	}

	if err := s.store.UpsertAccountView(ctx, &ledgerdomain.QuotaAccount{
		AccountID:        accountID,
		DomainID:         domainID,
		QuotaBalance:     aggregated,
		QuotaBalanceDate: windowEnd,
	}); err != nil {
		return err
	}

	s.log.Info("reconciled account balance",
		zap.Int64("accountId", int64(accountID)),
		zap.Int("ratedEntries", len(usages)),
		zap.String("balance", aggregated.String()),
		zap.Time("balanceDate", windowEnd),
	)
	return nil
}

// seedBalance is the account's balance just before the given instant: the
// newest snapshot before it plus every credit posted after that snapshot.
func (s *Service) seedBalance(ctx context.Context, accountID, domainID snowflake.ID, until time.Time) (decimal.Decimal, error) {
	seed := decimal.Zero
	since := time.Time{}

	last, err := s.store.LastSnapshotBefore(ctx, accountID, domainID, until)
	if err != nil {
		return decimal.Zero, err
	}
	if last != nil {
		seed = seed.Add(last.CreditBalance)
		since = last.UpdatedOn
	}

	credits, err := s.store.CreditsBetween(ctx, accountID, domainID, since, until)
	if err != nil {
		return decimal.Zero, err
	}
	return seed.Add(credits), nil
}

func (s *Service) appendSnapshot(ctx context.Context, accountID, domainID snowflake.ID, balance decimal.Decimal, on time.Time) error {
	err := s.store.AppendBalance(ctx, nil, &ledgerdomain.QuotaBalance{
		ID:            s.genID.Generate(),
		AccountID:     accountID,
		DomainID:      domainID,
		CreditBalance: balance,
		UpdatedOn:     on,
	})
	if err != nil {
		return err
	}
	s.metrics.IncBalanceSnapshot()
	return nil
}

// CurrentBalance reports the account's balance as of now without writing
// anything: newest snapshot plus credits posted since it.
func (s *Service) CurrentBalance(ctx context.Context, accountID, domainID snowflake.ID) (decimal.Decimal, error) {
	if accountID == 0 {
		return decimal.Zero, ledgerdomain.ErrInvalidAccount
	}
	return s.seedBalance(ctx, accountID, domainID, s.clock.Now().Add(time.Nanosecond))
}

// AddCredit posts a credit row. Credits participate in reconciliation by
// timestamp; posting one never rewrites an existing snapshot.
func (s *Service) AddCredit(ctx context.Context, accountID, domainID snowflake.ID, amount decimal.Decimal) error {
	if accountID == 0 {
		return ledgerdomain.ErrInvalidAccount
	}
	if amount.IsZero() {
		return ledgerdomain.ErrInvalidAmount
	}
	return s.store.AppendBalance(ctx, nil, &ledgerdomain.QuotaBalance{
		ID:            s.genID.Generate(),
		AccountID:     accountID,
		DomainID:      domainID,
		CreditBalance: amount,
		CreditsID:     s.genID.Generate(),
		UpdatedOn:     s.clock.Now(),
	})
}
