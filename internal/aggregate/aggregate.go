// Package aggregate maintains one rollup record per calendar day from the
// stream of raw power readings.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
	"powerscope-server/internal/power"
)

// Engine persists each reading and keeps that day's aggregate current. The
// aggregate is always recomputed from every persisted reading of the day,
// never incremented in place, so retried or out-of-order deliveries cannot
// double-count.
type Engine struct {
	readings domain.ReadingRepository
	interval time.Duration
	log      logger.Logger
}

func NewEngine(readings domain.ReadingRepository, interval time.Duration, log logger.Logger) *Engine {
	return &Engine{readings: readings, interval: interval, log: log}
}

// Record stores the sample and upserts the rollup for the sample's local
// calendar day, determined at call time.
func (e *Engine) Record(ctx context.Context, sample domain.PowerSample) error {
	if err := e.readings.SaveReading(ctx, sample); err != nil {
		return fmt.Errorf("save reading: %w", err)
	}

	day := time.Now()
	readings, err := e.readings.ReadingsForDate(ctx, day)
	if err != nil {
		return fmt.Errorf("load readings for %s: %w", domain.DayOf(day), err)
	}

	agg := ComputeDaily(domain.DayOf(day), readings, e.interval)
	if err := e.readings.UpsertDaily(ctx, agg); err != nil {
		return fmt.Errorf("upsert daily aggregate: %w", err)
	}

	return nil
}

// Range returns the rollups for the most recent days, ascending by date.
func (e *Engine) Range(ctx context.Context, days int) ([]domain.DailyAggregate, error) {
	return e.readings.DailyRange(ctx, days)
}

// ComputeDaily derives a day's aggregate from all of its readings. The
// result depends only on the set of readings, not their order. Energy and
// usage hours assume each reading covers one polling interval.
func ComputeDaily(date string, readings []domain.PowerSample, interval time.Duration) domain.DailyAggregate {
	agg := domain.DailyAggregate{Date: date}
	if len(readings) == 0 {
		return agg
	}

	hoursPerReading := interval.Hours()

	var sum float64
	for _, r := range readings {
		sum += r.TotalPowerWatts
		if r.TotalPowerWatts > agg.MaxPowerWatts {
			agg.MaxPowerWatts = r.TotalPowerWatts
		}
		agg.TotalEnergyKWh += power.EnergyKWh(r.TotalPowerWatts, hoursPerReading)
		agg.TotalCost += r.CostForInterval
	}

	agg.AvgPowerWatts = sum / float64(len(readings))
	agg.UsageHours = float64(len(readings)) * hoursPerReading

	return agg
}
