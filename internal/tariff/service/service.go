// Package service resolves the tariff snapshot used by a billing run.
package service

import (
	"context"

	"github.com/smallbiznis/quotaledger/internal/tariff/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

func New(p Params) domain.Resolver {
	return &Service{
		log:  p.Log.Named("tariff.service"),
		repo: p.Repo,
	}
}

// ResolveActive groups every non-removed tariff by usage type and records,
// per group, whether any tariff carries an activation rule. Every known
// usage type gets an entry even when no tariff prices it, so callers can
// index the map without existence checks.
func (s *Service) ResolveActive(ctx context.Context) (map[usagetype.UsageType]domain.Group, error) {
	tariffs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[usagetype.UsageType]domain.Group, len(usagetype.All()))
	for _, info := range usagetype.All() {
		groups[info.Type] = domain.Group{}
	}

	for _, t := range tariffs {
		g := groups[t.UsageType]
		g.Tariffs = append(g.Tariffs, t)
		if t.HasActivationRule() {
			g.HasActivationRule = true
		}
		groups[t.UsageType] = g
	}

	s.log.Debug("resolved tariff snapshot", zap.Int("tariffs", len(tariffs)))
	return groups, nil
}
