package aggregate

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
	"powerscope-server/internal/power"
)

func makeReadings(watts []float64, interval time.Duration, price float64) []domain.PowerSample {
	out := make([]domain.PowerSample, len(watts))
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	for i, w := range watts {
		out[i] = domain.PowerSample{
			Timestamp:       base.Add(time.Duration(i) * interval),
			TotalPowerWatts: w,
			CostForInterval: power.Cost(w, price, interval.Hours()),
		}
	}
	return out
}

func TestComputeDailyArithmeticProgression(t *testing.T) {
	// 12 readings at 5s intervals, totals 100..210.
	watts := make([]float64, 12)
	var sum float64
	for i := range watts {
		watts[i] = 100 + float64(i)*10
		sum += watts[i]
	}

	interval := 5 * time.Second
	readings := makeReadings(watts, interval, 0.15)

	agg := ComputeDaily("2026-08-29", readings, interval)

	wantHours := 12 * 5.0 / 3600
	if math.Abs(agg.UsageHours-wantHours) > 1e-12 {
		t.Fatalf("usage hours = %v, want %v", agg.UsageHours, wantHours)
	}

	wantAvg := sum / 12
	if math.Abs(agg.AvgPowerWatts-wantAvg) > 1e-9 {
		t.Fatalf("avg = %v, want %v", agg.AvgPowerWatts, wantAvg)
	}

	if agg.MaxPowerWatts != 210 {
		t.Fatalf("max = %v, want 210", agg.MaxPowerWatts)
	}

	var wantEnergy float64
	for _, w := range watts {
		wantEnergy += w / 1000 * 5 / 3600
	}
	if math.Abs(agg.TotalEnergyKWh-wantEnergy) > 1e-12 {
		t.Fatalf("energy = %v, want %v", agg.TotalEnergyKWh, wantEnergy)
	}

	// Per-interval costing makes daily cost consistent with energy.
	wantCost := wantEnergy * 0.15
	if math.Abs(agg.TotalCost-wantCost) > 1e-12 {
		t.Fatalf("cost = %v, want %v", agg.TotalCost, wantCost)
	}
}

func TestComputeDailyOrderIndependent(t *testing.T) {
	interval := 5 * time.Second
	readings := makeReadings([]float64{80, 240, 130, 95, 310, 150}, interval, 0.20)

	want := ComputeDaily("2026-08-29", readings, interval)

	rng := rand.New(rand.NewSource(1))
	for range 10 {
		shuffled := make([]domain.PowerSample, len(readings))
		copy(shuffled, readings)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := ComputeDaily("2026-08-29", shuffled, interval)
		if math.Abs(got.AvgPowerWatts-want.AvgPowerWatts) > 1e-9 ||
			got.MaxPowerWatts != want.MaxPowerWatts ||
			math.Abs(got.TotalEnergyKWh-want.TotalEnergyKWh) > 1e-12 ||
			math.Abs(got.TotalCost-want.TotalCost) > 1e-12 ||
			got.UsageHours != want.UsageHours {
			t.Fatalf("aggregate depends on delivery order: got %+v, want %+v", got, want)
		}
	}
}

func TestComputeDailyEmpty(t *testing.T) {
	agg := ComputeDaily("2026-08-29", nil, 5*time.Second)
	if agg.AvgPowerWatts != 0 || agg.MaxPowerWatts != 0 || agg.TotalEnergyKWh != 0 || agg.UsageHours != 0 {
		t.Fatalf("empty day should aggregate to zeros, got %+v", agg)
	}
}

type memReadingRepo struct {
	readings []domain.PowerSample
	daily    map[string]domain.DailyAggregate
	upserts  int
}

func newMemReadingRepo() *memReadingRepo {
	return &memReadingRepo{daily: make(map[string]domain.DailyAggregate)}
}

func (m *memReadingRepo) SaveReading(_ context.Context, s domain.PowerSample) error {
	m.readings = append(m.readings, s)
	return nil
}

func (m *memReadingRepo) ReadingsForDate(_ context.Context, date time.Time) ([]domain.PowerSample, error) {
	day := domain.DayOf(date)
	var out []domain.PowerSample
	for _, r := range m.readings {
		if domain.DayOf(r.Timestamp) == day {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReadingRepo) UpsertDaily(_ context.Context, agg domain.DailyAggregate) error {
	m.daily[agg.Date] = agg
	m.upserts++
	return nil
}

func (m *memReadingRepo) DailyRange(_ context.Context, days int) ([]domain.DailyAggregate, error) {
	var out []domain.DailyAggregate
	for _, agg := range m.daily {
		out = append(out, agg)
	}
	return out, nil
}

func TestRecordUpsertsSingleRowPerDay(t *testing.T) {
	repo := newMemReadingRepo()
	engine := NewEngine(repo, 5*time.Second, logger.Discard())

	now := time.Now()
	for i, w := range []float64{100, 150, 200} {
		sample := domain.PowerSample{
			Timestamp:       now.Add(time.Duration(i) * 5 * time.Second),
			TotalPowerWatts: w,
			CostForInterval: power.Cost(w, 0.15, 5.0/3600),
		}
		if err := engine.Record(context.Background(), sample); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	if len(repo.daily) != 1 {
		t.Fatalf("expected one daily row, got %d", len(repo.daily))
	}
	if repo.upserts != 3 {
		t.Fatalf("expected an upsert per record call, got %d", repo.upserts)
	}

	agg := repo.daily[domain.DayOf(now)]
	if math.Abs(agg.AvgPowerWatts-150) > 1e-9 {
		t.Fatalf("avg = %v, want 150", agg.AvgPowerWatts)
	}
	if agg.MaxPowerWatts != 200 {
		t.Fatalf("max = %v, want 200", agg.MaxPowerWatts)
	}
}
