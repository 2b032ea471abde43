// Package inventory detects hardware components and their rated power
// envelopes. Detection is best effort: every sub-detector is isolated, and
// a failing one resolves to a built-in default record so the pass as a
// whole never fails.
package inventory

import (
	"context"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
)

// Default rated power envelopes, used when a component cannot be probed.
const (
	DefaultCPUTDPWatts      = 65
	DefaultGPUTDPWatts      = 150
	DefaultMotherboardWatts = 30
	DefaultRAMWattsPerStick = 5
	DefaultSSDWatts         = 3
	DefaultHDDWatts         = 7
)

type probe func(context.Context) (domain.Component, error)

type Detector struct {
	log logger.Logger

	// Per-type probes, overridable in tests.
	cpu         probe
	gpu         probe
	motherboard probe
	memory      probe
	storage     probe
}

func NewDetector(log logger.Logger) *Detector {
	d := &Detector{log: log}
	d.cpu = d.detectCPU
	d.gpu = d.detectGPU
	d.motherboard = d.detectMotherboard
	d.memory = d.detectMemory
	d.storage = d.detectStorage
	return d
}

// Detect probes every component type once. It is meant to run at startup;
// the returned records are immutable for the rest of the session.
func (d *Detector) Detect(ctx context.Context) map[domain.ComponentType]domain.Component {
	components := map[domain.ComponentType]domain.Component{
		domain.ComponentCPU:         d.run(ctx, d.cpu, defaultCPU()),
		domain.ComponentGPU:         d.run(ctx, d.gpu, defaultGPU()),
		domain.ComponentMotherboard: d.run(ctx, d.motherboard, defaultMotherboard()),
		domain.ComponentMemory:      d.run(ctx, d.memory, defaultMemory()),
		domain.ComponentStorage:     d.run(ctx, d.storage, defaultStorage()),
	}

	for _, c := range components {
		d.log.Info("detected component",
			"type", c.Type, "name", c.Name, "rated_watts", c.RatedPowerWatts)
	}

	return components
}

func (d *Detector) run(ctx context.Context, detect probe, fallback domain.Component) (out domain.Component) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("component detection panicked", "type", fallback.Type, "panic", r)
			out = fallback
		}
	}()

	c, err := detect(ctx)
	if err != nil {
		d.log.Warn("component detection failed, using defaults",
			"type", fallback.Type, "error", err)
		return fallback
	}
	return c
}

func defaultCPU() domain.Component {
	return domain.Component{
		Type:            domain.ComponentCPU,
		Name:            "Unknown CPU",
		RatedPowerWatts: DefaultCPUTDPWatts,
	}
}

func defaultGPU() domain.Component {
	return domain.Component{
		Type:            domain.ComponentGPU,
		Name:            "Unknown GPU",
		RatedPowerWatts: DefaultGPUTDPWatts,
	}
}

func defaultMotherboard() domain.Component {
	return domain.Component{
		Type:            domain.ComponentMotherboard,
		Name:            "Unknown Motherboard",
		RatedPowerWatts: DefaultMotherboardWatts,
	}
}

func defaultMemory() domain.Component {
	return domain.Component{
		Type:            domain.ComponentMemory,
		Name:            "System Memory",
		RatedPowerWatts: DefaultRAMWattsPerStick * 2,
		Details:         map[string]any{"sticks": 2},
	}
}

func defaultStorage() domain.Component {
	return domain.Component{
		Type:            domain.ComponentStorage,
		Name:            "Storage",
		RatedPowerWatts: DefaultHDDWatts,
	}
}
