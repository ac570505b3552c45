package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/clock"
	"github.com/smallbiznis/quotaledger/internal/config"
	quotedomain "github.com/smallbiznis/quotaledger/internal/quote/domain"
	tariffdomain "github.com/smallbiznis/quotaledger/internal/tariff/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

type staticResolver struct {
	groups map[usagetype.UsageType]tariffdomain.Group
}

func (r *staticResolver) ResolveActive(ctx context.Context) (map[usagetype.UsageType]tariffdomain.Group, error) {
	return r.groups, nil
}

func newQuoteService(tariffs ...tariffdomain.QuotaTariff) quotedomain.Service {
	groups := make(map[usagetype.UsageType]tariffdomain.Group)
	for _, info := range usagetype.All() {
		groups[info.Type] = tariffdomain.Group{}
	}
	for _, t := range tariffs {
		g := groups[t.UsageType]
		g.Tariffs = append(g.Tariffs, t)
		if t.HasActivationRule() {
			g.HasActivationRule = true
		}
		groups[t.UsageType] = g
	}
	return NewService(Params{
		Log:     zap.NewNop(),
		Tariffs: &staticResolver{groups: groups},
		Holder:  config.NewStaticBillingConfigHolder(config.DefaultBillingRunConfig()),
		Clock:   clock.NewFakeClock(t0),
	})
}

func tariff(id int64, t usagetype.UsageType, value string) tariffdomain.QuotaTariff {
	info, _ := usagetype.Lookup(t)
	return tariffdomain.QuotaTariff{
		ID:            snowflake.ID(id),
		UsageType:     t,
		UsageUnit:     info.Unit,
		CurrencyValue: decimal.RequireFromString(value),
		EffectiveFrom: t0.AddDate(0, -1, 0),
	}
}

func TestQuoteResources_MonthlyUnit(t *testing.T) {
	svc := newQuoteService(tariff(1, usagetype.RunningVM, "30"))

	// 720 resource-hours of a VM at 30.00 per month quotes one month.
	quote, err := svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{ID: "vm", UsageType: "RUNNING_VM", Volume: decimal.NewFromInt(720)},
	})
	require.NoError(t, err)
	require.Len(t, quote.Items, 1)
	require.Equal(t, "30.00", quote.Items[0].Quote.StringFixed(2))
	require.Equal(t, "30.00", quote.Total.StringFixed(2))
}

func TestQuoteResources_GBUnit(t *testing.T) {
	svc := newQuoteService(tariff(1, usagetype.NetworkBytesSent, "0.1"))

	quote, err := svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{ID: "xfer", UsageType: "NETWORK_BYTES_SENT", Volume: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	require.Equal(t, "10.00", quote.Total.StringFixed(2))
}

func TestQuoteResources_SumsMultipleItems(t *testing.T) {
	svc := newQuoteService(
		tariff(1, usagetype.RunningVM, "30"),
		tariff(2, usagetype.NetworkBytesSent, "0.1"),
	)

	quote, err := svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{ID: "vm", UsageType: "RUNNING_VM", Volume: decimal.NewFromInt(720)},
		{ID: "xfer", UsageType: "NETWORK_BYTES_SENT", Volume: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	require.Len(t, quote.Items, 2)
	require.Equal(t, "40.00", quote.Total.StringFixed(2))
}

func TestQuoteResources_ExpiredTariffIgnored(t *testing.T) {
	expired := tariff(1, usagetype.RunningVM, "30")
	to := t0.AddDate(0, 0, -1)
	expired.EffectiveTo = &to
	svc := newQuoteService(expired)

	quote, err := svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{ID: "vm", UsageType: "RUNNING_VM", Volume: decimal.NewFromInt(720)},
	})
	require.NoError(t, err)
	require.Equal(t, "0.00", quote.Total.StringFixed(2))
}

func TestQuoteResources_RuleUsesMetadata(t *testing.T) {
	conditional := tariff(1, usagetype.RunningVM, "30")
	conditional.ActivationRule = `value.computeOffering && value.computeOffering.cpuNumber > 2 ? 60 : 30`
	svc := newQuoteService(conditional)

	quote, err := svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{
			ID:        "big-vm",
			UsageType: "RUNNING_VM",
			Volume:    decimal.NewFromInt(720),
			Metadata: map[string]any{
				"computeOfferingId": "co-1",
				"cpuNumber":         float64(8),
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "60.00", quote.Total.StringFixed(2))
}

func TestQuoteResources_Validation(t *testing.T) {
	svc := newQuoteService()

	_, err := svc.QuoteResources(context.Background(), nil)
	require.ErrorIs(t, err, quotedomain.ErrNoItems)

	_, err = svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{ID: "x", UsageType: "NOT_A_TYPE", Volume: decimal.NewFromInt(1)},
	})
	require.ErrorIs(t, err, quotedomain.ErrUnknownUsageType)

	_, err = svc.QuoteResources(context.Background(), []quotedomain.QuoteItem{
		{ID: "x", UsageType: "RUNNING_VM", Volume: decimal.NewFromInt(-1)},
	})
	require.ErrorIs(t, err, quotedomain.ErrInvalidVolume)
}
