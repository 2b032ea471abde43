package power

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/cpu"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
	"powerscope-server/pkg"
)

// Utilization-to-power scaling factors: a component running at 100% load
// rarely sustains its full rated envelope.
const (
	CPUScalingFactor = 0.7
	GPUScalingFactor = 0.8

	// IdlePowerWatts covers fans and peripherals not separately modeled;
	// added only on the estimation path.
	IdlePowerWatts = 20

	// DefaultGPUUtilization is assumed when no GPU load source answers.
	DefaultGPUUtilization = 30
)

// Terminal fallback sample, returned when even the estimation path fails.
const (
	fallbackCPUWatts   = 50
	fallbackGPUWatts   = 30
	fallbackOtherWatts = 20
)

// UtilizationFunc queries a component load in percent from the OS or a
// vendor tool.
type UtilizationFunc func(ctx context.Context) (float64, error)

// PriceFunc returns the current electricity price per kWh.
type PriceFunc func() float64

// Estimator produces one PowerSample per call. The sensor path is selected
// once at construction when a sysfs sensor source exists; each individual
// call still degrades to pure estimation, and finally to a fixed safe
// sample, so Sample never fails.
type Estimator struct {
	log       logger.Logger
	sessionID uuid.UUID
	interval  time.Duration
	envelopes map[domain.ComponentType]domain.Component

	sensors SensorSource // nil: estimation only
	cpuUtil UtilizationFunc
	gpuUtil UtilizationFunc
	price   PriceFunc
}

func NewEstimator(
	log logger.Logger,
	sessionID uuid.UUID,
	interval time.Duration,
	envelopes map[domain.ComponentType]domain.Component,
	sensors SensorSource,
	price PriceFunc,
) *Estimator {
	return &Estimator{
		log:       log,
		sessionID: sessionID,
		interval:  interval,
		envelopes: envelopes,
		sensors:   sensors,
		cpuUtil:   osCPUUtilization,
		gpuUtil:   nvidiaGPUUtilization,
		price:     price,
	}
}

// Sample returns the best available power reading. It never returns an
// error and never panics outward.
func (e *Estimator) Sample(ctx context.Context) (sample domain.PowerSample) {
	now := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("power sampling panicked, returning safe default", "panic", r)
			sample = e.safeDefault(now)
		}
	}()

	var breakdown map[string]domain.ComponentPower

	if e.sensors != nil {
		if err := e.sensors.Refresh(); err != nil {
			e.log.Warn("sensor refresh failed, estimating this sample", "error", err)
			breakdown = e.estimateAll(ctx)
		} else {
			breakdown = e.sensorSample(ctx)
		}
	} else {
		breakdown = e.estimateAll(ctx)
	}

	if breakdown == nil {
		return e.safeDefault(now)
	}

	return e.build(now, breakdown)
}

func (e *Estimator) build(now time.Time, breakdown map[string]domain.ComponentPower) domain.PowerSample {
	var total float64
	for _, c := range breakdown {
		total += c.PowerWatts
	}

	return domain.PowerSample{
		SessionID:       e.sessionID,
		Timestamp:       now,
		TotalPowerWatts: total,
		Breakdown:       breakdown,
		CostForInterval: Cost(total, e.price(), e.interval.Hours()),
	}
}

// sensorSample reads CPU and GPU from the refreshed sensors, estimating
// per component where the direct power sensor is absent. Motherboard,
// memory and storage have no dynamic sensor and contribute their rated
// envelope.
func (e *Estimator) sensorSample(ctx context.Context) map[string]domain.ComponentPower {
	breakdown := make(map[string]domain.ComponentPower, len(domain.ComponentTypes))

	breakdown[string(domain.ComponentCPU)] = e.sensorComponent(ctx, domain.ComponentCPU, e.cpuUtil, CPUScalingFactor, 0)
	breakdown[string(domain.ComponentGPU)] = e.sensorComponent(ctx, domain.ComponentGPU, e.fallbackGPUUtil, GPUScalingFactor, DefaultGPUUtilization)

	for _, t := range []domain.ComponentType{domain.ComponentMotherboard, domain.ComponentMemory, domain.ComponentStorage} {
		breakdown[string(t)] = domain.ComponentPower{PowerWatts: e.envelope(t)}
	}

	return breakdown
}

func (e *Estimator) sensorComponent(ctx context.Context, t domain.ComponentType, utilQuery UtilizationFunc, scaling, defaultUtil float64) domain.ComponentPower {
	out := domain.ComponentPower{}

	if temp, ok := e.sensors.Temperature(t); ok {
		out.TemperatureC = &temp
	}

	util, utilKnown := e.sensors.Utilization(t)
	if !utilKnown {
		if v, err := utilQuery(ctx); err == nil {
			util, utilKnown = v, true
		}
	}
	if utilKnown {
		util = pkg.Clamp(util, 0, 100)
		out.UtilizationPercent = &util
	}

	if watts, ok := e.sensors.PackagePower(t); ok {
		out.PowerWatts = watts
		return out
	}

	// No direct power sensor: estimate from utilization and the rated
	// envelope. When the utilization query fails too, assume the default
	// load so a transient failure does not zero out the component.
	if !utilKnown {
		util = defaultUtil
	}
	out.PowerWatts = e.envelope(t) * (util / 100) * scaling
	return out
}

// estimateAll is the pure estimation path. A nil return means even this
// path failed and the caller should fall back to the safe default.
func (e *Estimator) estimateAll(ctx context.Context) map[string]domain.ComponentPower {
	cpuUtil, err := e.cpuUtil(ctx)
	if err != nil {
		e.log.Error("cpu utilization query failed", "error", err)
		return nil
	}
	cpuUtil = pkg.Clamp(cpuUtil, 0, 100)

	gpuUtil, err := e.fallbackGPUUtil(ctx)
	if err != nil {
		gpuUtil = DefaultGPUUtilization
	}
	gpuUtil = pkg.Clamp(gpuUtil, 0, 100)

	cpuWatts := e.envelope(domain.ComponentCPU) * (cpuUtil / 100) * CPUScalingFactor
	gpuWatts := e.envelope(domain.ComponentGPU) * (gpuUtil / 100) * GPUScalingFactor

	return map[string]domain.ComponentPower{
		string(domain.ComponentCPU):         {PowerWatts: cpuWatts, UtilizationPercent: &cpuUtil},
		string(domain.ComponentGPU):         {PowerWatts: gpuWatts, UtilizationPercent: &gpuUtil},
		string(domain.ComponentMotherboard): {PowerWatts: e.envelope(domain.ComponentMotherboard)},
		string(domain.ComponentMemory):      {PowerWatts: e.envelope(domain.ComponentMemory)},
		string(domain.ComponentStorage):     {PowerWatts: e.envelope(domain.ComponentStorage)},
		domain.BreakdownIdle:                {PowerWatts: IdlePowerWatts},
	}
}

func (e *Estimator) fallbackGPUUtil(ctx context.Context) (float64, error) {
	if e.gpuUtil == nil {
		return 0, fmt.Errorf("no gpu utilization source")
	}
	return e.gpuUtil(ctx)
}

func (e *Estimator) envelope(t domain.ComponentType) float64 {
	return e.envelopes[t].RatedPowerWatts
}

func (e *Estimator) safeDefault(now time.Time) domain.PowerSample {
	breakdown := map[string]domain.ComponentPower{
		string(domain.ComponentCPU): {PowerWatts: fallbackCPUWatts},
		string(domain.ComponentGPU): {PowerWatts: fallbackGPUWatts},
		domain.BreakdownOther:       {PowerWatts: fallbackOtherWatts},
	}

	return domain.PowerSample{
		SessionID:       e.sessionID,
		Timestamp:       now,
		TotalPowerWatts: fallbackCPUWatts + fallbackGPUWatts + fallbackOtherWatts,
		Breakdown:       breakdown,
		CostForInterval: Cost(fallbackCPUWatts+fallbackGPUWatts+fallbackOtherWatts, e.price(), e.interval.Hours()),
	}
}

func osCPUUtilization(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("empty cpu utilization result")
	}
	return percents[0], nil
}
