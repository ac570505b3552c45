package ledger

import (
	"github.com/smallbiznis/quotaledger/internal/ledger/repository"
	"github.com/smallbiznis/quotaledger/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(
		repository.New,
		service.NewService,
	),
)
