package account

import (
	"github.com/smallbiznis/quotaledger/internal/account/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("account.repository",
	fx.Provide(repository.New),
)
