package domain

import "time"

// DateLayout is the calendar-day key format for daily rollups.
const DateLayout = "2006-01-02"

// DailyAggregate is the single rollup record for one local calendar day,
// derived from all raw readings of that day. Keyed uniquely by Date.
type DailyAggregate struct {
	Date           string  `json:"date"`
	AvgPowerWatts  float64 `json:"avg_power_watts"`
	MaxPowerWatts  float64 `json:"max_power_watts"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	TotalCost      float64 `json:"total_cost"`

	// UsageHours assumes a constant polling interval; it is an
	// approximation, not measured uptime.
	UsageHours float64 `json:"usage_hours"`
}

// CostProjection extrapolates recent daily costs forward. Figures are
// estimates based on observed days only; days without readings do not
// drag the average down.
type CostProjection struct {
	DaysSampled int     `json:"days_sampled"`
	AvgDailyKWh float64 `json:"avg_daily_kwh"`
	DailyCost   float64 `json:"daily_cost"`
	MonthlyCost float64 `json:"monthly_cost"`
	YearlyCost  float64 `json:"yearly_cost"`
	PricePerKWh float64 `json:"price_per_kwh"`
}

// DayOf returns the local calendar day key for t.
func DayOf(t time.Time) string {
	return t.Local().Format(DateLayout)
}
