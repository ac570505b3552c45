package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/quotaledger/internal/tariff/domain"
	"github.com/smallbiznis/quotaledger/internal/tariff/repository"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.QuotaTariff{}))
	return db
}

func newService(t *testing.T, db *gorm.DB) domain.Resolver {
	t.Helper()
	return New(Params{
		Log:  zap.NewNop(),
		Repo: repository.New(db),
	})
}

func TestResolveActive_GroupsByUsageType(t *testing.T) {
	db := setupDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tariffs := []domain.QuotaTariff{
		{ID: 1, Name: "vm-base", UsageType: usagetype.RunningVM, UsageUnit: usagetype.UnitComputeMonth, CurrencyValue: decimal.NewFromInt(30), EffectiveFrom: now.AddDate(0, -1, 0)},
		{ID: 2, Name: "vm-premium", UsageType: usagetype.RunningVM, UsageUnit: usagetype.UnitComputeMonth, CurrencyValue: decimal.NewFromInt(10), EffectiveFrom: now.AddDate(0, -1, 0), ActivationRule: "account.name === 'premium'"},
		{ID: 3, Name: "volume", UsageType: usagetype.Volume, UsageUnit: usagetype.UnitGBMonth, CurrencyValue: decimal.NewFromInt(2), EffectiveFrom: now.AddDate(0, -1, 0)},
	}
	require.NoError(t, db.Create(&tariffs).Error)

	groups, err := newService(t, db).ResolveActive(context.Background())
	require.NoError(t, err)

	vm := groups[usagetype.RunningVM]
	require.Len(t, vm.Tariffs, 2)
	require.True(t, vm.HasActivationRule)

	vol := groups[usagetype.Volume]
	require.Len(t, vol.Tariffs, 1)
	require.False(t, vol.HasActivationRule)
}

func TestResolveActive_EveryKnownTypePresent(t *testing.T) {
	db := setupDB(t)

	groups, err := newService(t, db).ResolveActive(context.Background())
	require.NoError(t, err)

	for _, info := range usagetype.All() {
		g, ok := groups[info.Type]
		require.True(t, ok, "missing group for %s", info.Type)
		require.Empty(t, g.Tariffs)
		require.False(t, g.HasActivationRule)
	}
}

func TestResolveActive_SkipsRemovedTariffs(t *testing.T) {
	db := setupDB(t)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	removed := now.AddDate(0, 0, -7)

	tariffs := []domain.QuotaTariff{
		{ID: 1, Name: "live", UsageType: usagetype.Volume, UsageUnit: usagetype.UnitGBMonth, CurrencyValue: decimal.NewFromInt(2), EffectiveFrom: now.AddDate(0, -1, 0)},
		{ID: 2, Name: "gone", UsageType: usagetype.Volume, UsageUnit: usagetype.UnitGBMonth, CurrencyValue: decimal.NewFromInt(9), EffectiveFrom: now.AddDate(0, -1, 0), Removed: &removed},
	}
	require.NoError(t, db.Create(&tariffs).Error)

	groups, err := newService(t, db).ResolveActive(context.Background())
	require.NoError(t, err)
	require.Len(t, groups[usagetype.Volume].Tariffs, 1)
	require.Equal(t, "live", groups[usagetype.Volume].Tariffs[0].Name)
}

func TestAppliesTo_HalfOpenBoundaries(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	endsAtStart := domain.QuotaTariff{EffectiveFrom: start.AddDate(0, -1, 0), EffectiveTo: &start}
	require.False(t, endsAtStart.AppliesTo(start, end), "tariff ending at record start must not apply")

	startsAtEnd := domain.QuotaTariff{EffectiveFrom: end}
	require.True(t, startsAtEnd.AppliesTo(start, end), "tariff starting at record end applies")

	open := domain.QuotaTariff{EffectiveFrom: start.AddDate(0, -1, 0)}
	require.True(t, open.AppliesTo(start, end))
}
