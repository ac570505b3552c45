package batch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config controls how often the billing batch runs.
type Config struct {
	RunInterval time.Duration
}

func DefaultConfig() Config {
	return Config{RunInterval: time.Hour}
}

func (c Config) withDefaults() Config {
	if c.RunInterval <= 0 {
		c.RunInterval = DefaultConfig().RunInterval
	}
	return c
}

// Scheduler runs the billing batch on a fixed interval until its context is
// canceled.
type Scheduler struct {
	log    *zap.Logger
	cfg    Config
	runner *Runner
}

func NewScheduler(log *zap.Logger, cfg Config, runner *Runner) *Scheduler {
	return &Scheduler{
		log:    log.Named("batch.scheduler"),
		cfg:    cfg.withDefaults(),
		runner: runner,
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.runner.Run(ctx)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("billing batch run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
