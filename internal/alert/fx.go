package alert

import (
	"github.com/smallbiznis/quotaledger/internal/alert/repository"
	"github.com/smallbiznis/quotaledger/internal/alert/service"
	"go.uber.org/fx"
)

var Module = fx.Module("alert.service",
	fx.Provide(
		repository.New,
		service.NewService,
	),
)
