package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/clock"
	"github.com/smallbiznis/quotaledger/internal/config"
	quotedomain "github.com/smallbiznis/quotaledger/internal/quote/domain"
	"github.com/smallbiznis/quotaledger/internal/rule"
	"github.com/smallbiznis/quotaledger/internal/rule/presetvars"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"github.com/smallbiznis/quotaledger/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log *zap.Logger

	tariffs tariffdomain.Resolver
	holder  *config.BillingConfigHolder
	clock   clock.Clock
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Tariffs tariffdomain.Resolver
	Holder  *config.BillingConfigHolder
	Clock   clock.Clock
}

func NewService(p Params) quotedomain.Service {
	return &Service{
		log: p.Log.Named("quote.service"),

		tariffs: p.Tariffs,
		holder:  p.Holder,
		clock:   p.Clock,
	}
}

// QuoteResources prices hypothetical resources against the tariffs in force
// right now. Unlike rating there is no usage window; only currently valid
// tariffs participate.
func (s *Service) QuoteResources(ctx context.Context, items []quotedomain.QuoteItem) (*quotedomain.Quote, error) {
	if len(items) == 0 {
		return nil, quotedomain.ErrNoItems
	}

	cfg := s.holder.Snapshot()
	now := s.clock.Now()

	groups, err := s.tariffs.ResolveActive(ctx)
	if err != nil {
		return nil, err
	}

	var interp *rule.Interpreter

	quote := &quotedomain.Quote{Total: decimal.Zero}
	for _, item := range items {
		info, ok := usagetype.LookupByName(item.UsageType)
		if !ok {
			return nil, quotedomain.ErrUnknownUsageType
		}
		if item.Volume.IsNegative() {
			return nil, quotedomain.ErrInvalidVolume
		}

		group := groups[info.Type]
		if group.HasActivationRule && interp == nil {
			interp, err = rule.NewInterpreter(cfg.RuleTimeout, s.log)
			if err != nil {
				return nil, err
			}
		}

		aggregate, err := s.aggregateCurrentTariffs(item, group, now, interp)
		if err != nil {
			return nil, err
		}

		amount := itemAmount(info.Unit, aggregate, item.Volume)
		quote.Items = append(quote.Items, quotedomain.ItemQuote{
			ID:        item.ID,
			UsageType: info.Type,
			Quote:     money.Display(amount),
		})
		quote.Total = quote.Total.Add(amount)
	}

	quote.Total = money.Display(quote.Total)
	return quote, nil
}

func (s *Service) aggregateCurrentTariffs(
	item quotedomain.QuoteItem,
	group tariffdomain.Group,
	now time.Time,
	interp *rule.Interpreter,
) (decimal.Decimal, error) {
	aggregate := decimal.Zero

	var vars map[string]any
	for _, t := range group.Tariffs {
		if !t.ValidAt(now) {
			continue
		}
		if !t.HasActivationRule() {
			aggregate = aggregate.Add(t.CurrencyValue)
			continue
		}

		if vars == nil {
			info, _ := usagetype.LookupByName(item.UsageType)
			var err error
			vars, err = presetvars.BuildForQuote(info.Type, item.Metadata).ToMap()
			if err != nil {
				return decimal.Zero, err
			}
		}
		if err := interp.InjectVariables(vars); err != nil {
			s.log.Warn("quote rule injection failed, tariff contributes zero", zap.Error(err))
			continue
		}
		result, err := interp.Execute(t.ActivationRule)
		if err != nil {
			s.log.Warn("quote rule failed, tariff contributes zero",
				zap.Int64("tariffId", int64(t.ID)),
				zap.Error(err),
			)
			continue
		}
		switch result.Kind {
		case rule.KindNumber:
			aggregate = aggregate.Add(result.Number)
		case rule.KindBool:
			if result.Bool {
				aggregate = aggregate.Add(t.CurrencyValue)
			}
		}
	}
	return aggregate, nil
}

// itemAmount converts the aggregated tariff value into the item's quote.
// Monthly units take the volume in resource-hours; GB-style units take it
// directly in gibibytes.
func itemAmount(unit usagetype.Unit, aggregate, volume decimal.Decimal) decimal.Decimal {
	switch unit {
	case usagetype.UnitComputeMonth, usagetype.UnitIPMonth, usagetype.UnitPolicyMonth, usagetype.UnitGBMonth:
		return money.CostPerHour(aggregate).Mul(volume).RoundBank(money.CalculationScale)
	case usagetype.UnitGB:
		return aggregate.Mul(volume).RoundBank(money.CalculationScale)
	default:
		return decimal.Zero
	}
}
