package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Breakdown keys beyond the detected component types. The estimation path
// accounts fans and unmodeled peripherals under "idle"; the terminal
// fallback sample lumps everything non-CPU/GPU under "other".
const (
	BreakdownIdle  = "idle"
	BreakdownOther = "other"
)

// ComponentPower is one component's share of a power sample.
type ComponentPower struct {
	PowerWatts         float64  `json:"power_watts"`
	UtilizationPercent *float64 `json:"utilization_percent,omitempty"`
	TemperatureC       *float64 `json:"temperature_c,omitempty"`
}

// PowerSample is one point-in-time reading. TotalPowerWatts always equals
// the sum of the breakdown entries. Immutable after creation.
type PowerSample struct {
	SessionID       uuid.UUID                 `json:"session_id"`
	Timestamp       time.Time                 `json:"timestamp"`
	TotalPowerWatts float64                   `json:"total_power_watts"`
	Breakdown       map[string]ComponentPower `json:"breakdown"`
	CostForInterval float64                   `json:"cost_for_interval"`
}

// SumBreakdown returns the sum of the per-component power values.
func (s PowerSample) SumBreakdown() float64 {
	var sum float64
	for _, c := range s.Breakdown {
		sum += c.PowerWatts
	}
	return sum
}

type ReadingRepository interface {
	SaveReading(ctx context.Context, sample PowerSample) error
	ReadingsForDate(ctx context.Context, date time.Time) ([]PowerSample, error)
	UpsertDaily(ctx context.Context, agg DailyAggregate) error
	DailyRange(ctx context.Context, days int) ([]DailyAggregate, error)
}
