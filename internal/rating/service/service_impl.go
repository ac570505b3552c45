package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	"github.com/smallbiznis/quotaledger/internal/config"
	"github.com/smallbiznis/quotaledger/internal/observability/metrics"
	ratingdomain "github.com/smallbiznis/quotaledger/internal/rating/domain"
	"github.com/smallbiznis/quotaledger/internal/rule"
	"github.com/smallbiznis/quotaledger/internal/rule/presetvars"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	usagedomain "github.com/smallbiznis/quotaledger/internal/usage/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"github.com/smallbiznis/quotaledger/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	usage   usagedomain.Source
	store   ratingdomain.Store
	holder  *config.BillingConfigHolder
	metrics *metrics.Metrics
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Usage   usagedomain.Source
	Store   ratingdomain.Store
	Holder  *config.BillingConfigHolder
	Metrics *metrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) ratingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("rating.service"),

		genID:   p.GenID,
		usage:   p.Usage,
		store:   p.Store,
		holder:  p.Holder,
		metrics: p.Metrics,
	}
}

// RateAccount prices the account's pending records against the run's tariff
// snapshot. Every record is marked calculated exactly once; the marker and
// the rated entry commit in the same transaction, so a crash mid-account
// never double-charges on retry.
func (s *Service) RateAccount(
	ctx context.Context,
	account accountdomain.Account,
	records []usagedomain.UsageRecord,
	tariffs map[usagetype.UsageType]tariffdomain.Group,
) ([]ratingdomain.QuotaUsage, error) {
	if account.ID == 0 {
		return nil, ratingdomain.ErrInvalidAccount
	}
	if len(records) == 0 {
		return nil, nil
	}

	cfg := s.holder.Snapshot()

	// One interpreter per account pass, built only when a conditional
	// tariff can actually run. If the sandbox cannot be constructed the
	// whole account is skipped; rating conditional tariffs without their
	// rules would charge them unconditionally.
	var interp *rule.Interpreter

	var rated []ratingdomain.QuotaUsage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if usagetype.SkipCalculation(record.UsageType) {
				if err := s.usage.MarkCalculated(ctx, tx, record.ID); err != nil {
					return err
				}
				continue
			}

			group := tariffs[record.UsageType]
			if group.HasActivationRule && interp == nil {
				var err error
				interp, err = rule.NewInterpreter(cfg.RuleTimeout, s.log)
				if err != nil {
					return fmt.Errorf("%w: %v", ratingdomain.ErrInterpreter, err)
				}
			}

			aggregate, err := s.aggregateTariffValues(account, record, group, interp)
			if err != nil {
				return err
			}

			quotaUsed := decimal.Zero
			if !aggregate.IsZero() {
				quotaUsed = usageCost(record, aggregate)
			}
			if quotaUsed.IsZero() {
				if err := s.usage.MarkCalculated(ctx, tx, record.ID); err != nil {
					return err
				}
				s.metrics.IncZeroCostRecord()
				continue
			}

			usage := ratingdomain.QuotaUsage{
				ID:          s.genID.Generate(),
				UsageItemID: record.ID,
				AccountID:   record.AccountID,
				DomainID:    record.DomainID,
				ZoneID:      record.ZoneID,
				UsageType:   record.UsageType,
				QuotaUsed:   quotaUsed,
				StartDate:   record.StartDate,
				EndDate:     record.EndDate,
			}
			if err := s.store.Insert(ctx, tx, &usage); err != nil {
				return err
			}
			if err := s.usage.MarkCalculated(ctx, tx, record.ID); err != nil {
				return err
			}
			s.metrics.IncRecordRated(int(record.UsageType))
			rated = append(rated, usage)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rated account",
		zap.Int64("accountId", int64(account.ID)),
		zap.Int("records", len(records)),
		zap.Int("ratedEntries", len(rated)),
	)
	return rated, nil
}

// aggregateTariffValues sums the contribution of every tariff whose window
// overlaps the record. Conditional tariffs contribute whatever their rule
// decides. A failed or timed-out rule voids the whole record, not just the
// failing tariff's share: the record rates to zero, is still marked
// calculated, and the pass moves on.
func (s *Service) aggregateTariffValues(
	account accountdomain.Account,
	record usagedomain.UsageRecord,
	group tariffdomain.Group,
	interp *rule.Interpreter,
) (decimal.Decimal, error) {
	aggregate := decimal.Zero

	// Preset variables are built at most once per record, and only when the
	// first conditional tariff actually needs them.
	var vars map[string]any

	for _, t := range group.Tariffs {
		if !t.AppliesTo(record.StartDate, record.EndDate) {
			continue
		}
		if !t.HasActivationRule() {
			aggregate = aggregate.Add(t.CurrencyValue)
			continue
		}

		if vars == nil {
			var err error
			vars, err = presetvars.Build(account, record).ToMap()
			if err != nil {
				return decimal.Zero, err
			}
		}
		value, ruleErr := s.ruleValue(interp, t, record, vars)
		if ruleErr != nil {
			return decimal.Zero, nil
		}
		aggregate = aggregate.Add(value)
	}
	return aggregate, nil
}

func (s *Service) ruleValue(
	interp *rule.Interpreter,
	t tariffdomain.QuotaTariff,
	record usagedomain.UsageRecord,
	vars map[string]any,
) (decimal.Decimal, error) {
	if err := interp.InjectVariables(vars); err != nil {
		s.logRuleFailure(t, record, err)
		return decimal.Zero, err
	}
	result, err := interp.Execute(t.ActivationRule)
	if err != nil {
		s.logRuleFailure(t, record, err)
		return decimal.Zero, err
	}

	switch result.Kind {
	case rule.KindNumber:
		return result.Number, nil
	case rule.KindBool:
		if result.Bool {
			return t.CurrencyValue, nil
		}
		return decimal.Zero, nil
	default:
		return decimal.Zero, nil
	}
}

func (s *Service) logRuleFailure(t tariffdomain.QuotaTariff, record usagedomain.UsageRecord, err error) {
	s.metrics.IncRuleFailure()
	s.log.Warn("activation rule failed, record rates to zero",
		zap.Int64("tariffId", int64(t.ID)),
		zap.Int64("usageRecordId", int64(record.ID)),
		zap.Error(err),
	)
}

// usageCost converts the aggregated tariff value into money according to the
// pricing unit of the record's usage type. RawUsage is hours for monthly
// units and bytes for transfer units.
func usageCost(record usagedomain.UsageRecord, aggregate decimal.Decimal) decimal.Decimal {
	info, ok := usagetype.Lookup(record.UsageType)
	if !ok {
		return decimal.Zero
	}
	rawUsage := decimal.NewFromFloat(record.RawUsage)

	switch info.Unit {
	case usagetype.UnitComputeMonth, usagetype.UnitIPMonth, usagetype.UnitPolicyMonth:
		return rawUsage.Mul(money.CostPerHour(aggregate)).RoundBank(money.CalculationScale)
	case usagetype.UnitGB:
		return money.BytesToGiB(rawUsage).Mul(aggregate).RoundBank(money.CalculationScale)
	case usagetype.UnitGBMonth:
		if record.Size == nil {
			return decimal.Zero
		}
		sizeGiB := money.BytesToGiB(decimal.NewFromInt(*record.Size))
		return rawUsage.Mul(money.CostPerHour(aggregate)).Mul(sizeGiB).RoundBank(money.CalculationScale)
	default:
		return decimal.Zero
	}
}
