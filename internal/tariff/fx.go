package tariff

import (
	"github.com/smallbiznis/quotaledger/internal/tariff/repository"
	"github.com/smallbiznis/quotaledger/internal/tariff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tariff.service",
	fx.Provide(
		repository.New,
		service.New,
	),
)
