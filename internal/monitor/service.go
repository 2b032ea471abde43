// Package monitor ties the sampling loop to persistence, in-memory state
// and the live feed.
package monitor

import (
	"context"
	"fmt"

	"powerscope-server/internal/aggregate"
	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
	"powerscope-server/internal/settings"
	"powerscope-server/internal/storage/snapshot"
)

const (
	projectionWindowDays = 30
	daysPerMonth         = 30
	daysPerYear          = 365
)

// Broadcaster pushes live samples to connected clients.
type Broadcaster interface {
	BroadcastSample(sample domain.PowerSample)
}

type Service struct {
	log        logger.Logger
	engine     *aggregate.Engine
	settings   *settings.Service
	components domain.ComponentRepository

	current *snapshot.SampleStore
	history *snapshot.History

	broadcaster Broadcaster
}

func NewService(
	log logger.Logger,
	engine *aggregate.Engine,
	settingsService *settings.Service,
	components domain.ComponentRepository,
	historySize int,
	broadcaster Broadcaster,
) *Service {
	return &Service{
		log:         log,
		engine:      engine,
		settings:    settingsService,
		components:  components,
		current:     snapshot.NewSampleStore(),
		history:     snapshot.NewHistory(historySize),
		broadcaster: broadcaster,
	}
}

// OnSample is the scheduler sink. A persistence failure is logged but never
// stops the in-memory feed.
func (s *Service) OnSample(ctx context.Context, sample domain.PowerSample) {
	s.current.Set(sample)
	s.history.Append(sample)

	if err := s.engine.Record(ctx, sample); err != nil {
		s.log.Error("failed to persist sample", "error", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastSample(sample)
	}
}

// CurrentSample returns the most recent sample, or ErrNoSample before the
// first poll completes.
func (s *Service) CurrentSample() (domain.PowerSample, error) {
	sample, ok := s.current.Get()
	if !ok {
		return domain.PowerSample{}, domain.ErrNoSample
	}
	return sample, nil
}

// History returns the retained samples of this session, oldest first.
func (s *Service) History() []domain.PowerSample {
	return s.history.Samples()
}

func (s *Service) Components(ctx context.Context) ([]domain.Component, error) {
	return s.components.Components(ctx)
}

func (s *Service) Daily(ctx context.Context, days int) ([]domain.DailyAggregate, error) {
	return s.engine.Range(ctx, days)
}

// Projection extrapolates the recent daily averages into monthly and
// yearly cost estimates.
func (s *Service) Projection(ctx context.Context) (domain.CostProjection, error) {
	aggregates, err := s.engine.Range(ctx, projectionWindowDays)
	if err != nil {
		return domain.CostProjection{}, fmt.Errorf("load daily aggregates: %w", err)
	}
	if len(aggregates) == 0 {
		return domain.CostProjection{}, domain.ErrNoAggregates
	}

	var totalKWh, totalCost float64
	for _, agg := range aggregates {
		totalKWh += agg.TotalEnergyKWh
		totalCost += agg.TotalCost
	}

	days := float64(len(aggregates))
	dailyCost := totalCost / days

	return domain.CostProjection{
		DaysSampled: len(aggregates),
		AvgDailyKWh: totalKWh / days,
		DailyCost:   dailyCost,
		MonthlyCost: dailyCost * daysPerMonth,
		YearlyCost:  dailyCost * daysPerYear,
		PricePerKWh: s.settings.Price(),
	}, nil
}
