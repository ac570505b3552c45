package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/quotaledger/internal/account"
	"github.com/smallbiznis/quotaledger/internal/alert"
	"github.com/smallbiznis/quotaledger/internal/batch"
	"github.com/smallbiznis/quotaledger/internal/clock"
	"github.com/smallbiznis/quotaledger/internal/config"
	"github.com/smallbiznis/quotaledger/internal/ledger"
	"github.com/smallbiznis/quotaledger/internal/migration"
	"github.com/smallbiznis/quotaledger/internal/observability"
	"github.com/smallbiznis/quotaledger/internal/providers"
	"github.com/smallbiznis/quotaledger/internal/quote"
	"github.com/smallbiznis/quotaledger/internal/rating"
	"github.com/smallbiznis/quotaledger/internal/tariff"
	"github.com/smallbiznis/quotaledger/internal/usage"
	"github.com/smallbiznis/quotaledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services
		account.Module,
		usage.Module,
		tariff.Module,
		rating.Module,
		ledger.Module,
		alert.Module,
		quote.Module,
		providers.Module,

		// Periodic billing batch
		batch.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
