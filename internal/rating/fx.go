package rating

import (
	"github.com/smallbiznis/quotaledger/internal/rating/repository"
	"github.com/smallbiznis/quotaledger/internal/rating/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rating.service",
	fx.Provide(
		repository.New,
		service.NewService,
	),
)
