package batch

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("batch",
	fx.Provide(
		NewRunner,
		DefaultConfig,
		NewScheduler,
	),
	fx.Invoke(registerScheduler),
)

func registerScheduler(lc fx.Lifecycle, log *zap.Logger, scheduler *Scheduler) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go scheduler.RunForever(runCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}
