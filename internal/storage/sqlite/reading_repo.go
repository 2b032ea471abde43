package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"powerscope-server/internal/domain"
)

type ReadingRepository struct {
	db *sql.DB
}

func NewReadingRepository(db *sql.DB) domain.ReadingRepository {
	return &ReadingRepository{db: db}
}

func (r *ReadingRepository) SaveReading(ctx context.Context, sample domain.PowerSample) error {
	breakdown, err := json.Marshal(sample.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to serialize breakdown: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO power_readings (session_id, timestamp, total_power, component_data, cost)
		 VALUES (?, ?, ?, ?, ?)`,
		sample.SessionID.String(), sample.Timestamp, sample.TotalPowerWatts,
		string(breakdown), sample.CostForInterval)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}

	return nil
}

// ReadingsForDate returns every reading whose timestamp falls inside the
// given local calendar day.
func (r *ReadingRepository) ReadingsForDate(ctx context.Context, date time.Time) ([]domain.PowerSample, error) {
	local := date.Local()
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, timestamp, total_power, component_data, cost
		 FROM power_readings
		 WHERE timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp`,
		dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var samples []domain.PowerSample
	for rows.Next() {
		var s domain.PowerSample
		var sessionID, breakdown string

		if err := rows.Scan(&sessionID, &s.Timestamp, &s.TotalPowerWatts, &breakdown, &s.CostForInterval); err != nil {
			return nil, err
		}

		if id, err := uuid.Parse(sessionID); err == nil {
			s.SessionID = id
		}
		if breakdown != "" {
			if err := json.Unmarshal([]byte(breakdown), &s.Breakdown); err != nil {
				return nil, fmt.Errorf("failed to decode breakdown: %w", err)
			}
		}

		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

func (r *ReadingRepository) UpsertDaily(ctx context.Context, agg domain.DailyAggregate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO daily_power (date, avg_power, max_power, total_energy, cost, usage_hours)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		agg.Date, agg.AvgPowerWatts, agg.MaxPowerWatts,
		agg.TotalEnergyKWh, agg.TotalCost, agg.UsageHours)
	if err != nil {
		return fmt.Errorf("failed to upsert daily aggregate: %w", err)
	}

	return nil
}

// DailyRange returns the rollups for the most recent days, ascending by
// date. Days without readings simply have no row.
func (r *ReadingRepository) DailyRange(ctx context.Context, days int) ([]domain.DailyAggregate, error) {
	end := time.Now().Local()
	start := end.AddDate(0, 0, -(days - 1))

	rows, err := r.db.QueryContext(ctx,
		`SELECT date, avg_power, max_power, total_energy, cost, usage_hours
		 FROM daily_power
		 WHERE date >= ? AND date <= ?
		 ORDER BY date`,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []domain.DailyAggregate
	for rows.Next() {
		var a domain.DailyAggregate
		if err := rows.Scan(&a.Date, &a.AvgPowerWatts, &a.MaxPowerWatts,
			&a.TotalEnergyKWh, &a.TotalCost, &a.UsageHours); err != nil {
			return nil, err
		}
		aggs = append(aggs, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return aggs, nil
}
