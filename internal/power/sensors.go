// Package power produces best-effort instantaneous power readings for the
// whole machine. It combines direct sysfs power sensors with utilization
// based estimation and falls back step by step, never failing a sample.
package power

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
	"powerscope-server/pkg"
)

// SensorSource is a refreshable set of hardware sensors. Readings are only
// meaningful after Refresh; a (value, false) return means the sensor is not
// present on this machine.
type SensorSource interface {
	Refresh() error
	PackagePower(t domain.ComponentType) (float64, bool)
	Utilization(t domain.ComponentType) (float64, bool)
	Temperature(t domain.ComponentType) (float64, bool)
}

// hwmon names that expose CPU package power.
var cpuPowerHwmons = []string{
	"zenpower",
	"zenpower3",
	"amd_smu",
	"ryzen_smu",
	"rapl",
	"intel-rapl",
	"intel-rapl-msr",
}

type reading struct {
	value float64
	ok    bool
}

// sysfsSensors reads the powercap, hwmon and drm trees. One Refresh
// snapshots every sensor so the per-component getters stay cheap.
type sysfsSensors struct {
	log   logger.Logger
	cards []string

	lastEnergy uint64
	lastTime   time.Time
	gpuEMA     map[string]*pkg.EMA

	cpuPower reading
	cpuTemp  reading
	gpuPower reading
	gpuUtil  reading
	gpuTemp  reading
}

// NewSysfsSensors probes the sysfs sensor trees once. The second return is
// the capability flag: false means no direct sensor path exists on this
// machine and the estimator should run estimation-only.
func NewSysfsSensors(log logger.Logger) (SensorSource, bool) {
	s := &sysfsSensors{
		log:    log,
		cards:  detectDRMCards(),
		gpuEMA: make(map[string]*pkg.EMA),
	}

	available := false
	if _, err := os.Stat("/sys/class/powercap/intel-rapl/intel-rapl:0/energy_uj"); err == nil {
		available = true
	}
	if matches, _ := filepath.Glob("/sys/class/hwmon/hwmon*/power*_input"); len(matches) > 0 {
		available = true
	}
	if len(s.cards) > 0 {
		available = true
	}

	if !available {
		return nil, false
	}
	return s, true
}

func (s *sysfsSensors) Refresh() error {
	s.cpuPower = s.readCPUPower()
	s.cpuTemp = readCPUTemperature()
	s.gpuPower = s.readGPUPower()
	s.gpuUtil = s.readGPUUtilization()
	s.gpuTemp = s.readGPUTemperature()

	if !s.cpuPower.ok && !s.gpuPower.ok && !s.gpuUtil.ok {
		return errors.New("no sensor produced a reading")
	}
	return nil
}

func (s *sysfsSensors) PackagePower(t domain.ComponentType) (float64, bool) {
	switch t {
	case domain.ComponentCPU:
		return s.cpuPower.value, s.cpuPower.ok
	case domain.ComponentGPU:
		return s.gpuPower.value, s.gpuPower.ok
	}
	return 0, false
}

func (s *sysfsSensors) Utilization(t domain.ComponentType) (float64, bool) {
	if t == domain.ComponentGPU {
		return s.gpuUtil.value, s.gpuUtil.ok
	}
	return 0, false
}

func (s *sysfsSensors) Temperature(t domain.ComponentType) (float64, bool) {
	switch t {
	case domain.ComponentCPU:
		return s.cpuTemp.value, s.cpuTemp.ok
	case domain.ComponentGPU:
		return s.gpuTemp.value, s.gpuTemp.ok
	}
	return 0, false
}

// readCPUPower derives package watts from the RAPL energy counter delta,
// falling back to a direct hwmon power input. The first call after startup
// has no delta yet and reports not-ok.
func (s *sysfsSensors) readCPUPower() reading {
	if r := s.readRAPL(); r.ok {
		return r
	}
	return s.readCPUHwmon()
}

func (s *sysfsSensors) readRAPL() reading {
	b, err := os.ReadFile("/sys/class/powercap/intel-rapl/intel-rapl:0/energy_uj")
	if err != nil {
		return reading{}
	}

	energy, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return reading{}
	}

	now := time.Now()
	if s.lastEnergy == 0 || energy < s.lastEnergy {
		// First read, or the counter wrapped.
		s.lastEnergy = energy
		s.lastTime = now
		return reading{}
	}

	deltaEnergy := float64(energy - s.lastEnergy)
	deltaTime := now.Sub(s.lastTime).Seconds()
	s.lastEnergy = energy
	s.lastTime = now

	if deltaTime <= 0 {
		return reading{}
	}

	watt := (deltaEnergy / 1e6) / deltaTime
	return reading{value: watt, ok: watt > 0}
}

func (s *sysfsSensors) readCPUHwmon() reading {
	matches, _ := filepath.Glob("/sys/class/hwmon/hwmon*/power*_input")

	for _, f := range matches {
		dir := filepath.Dir(f)

		nameBytes, err := os.ReadFile(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}

		if !pkg.ContainsAny(strings.TrimSpace(string(nameBytes)), cpuPowerHwmons) {
			continue
		}

		b, err := os.ReadFile(f)
		if err != nil {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			s.log.Warn("failed to parse hwmon power", "file", f, "error", err)
			continue
		}
		return reading{value: v / 1e6, ok: v > 0}
	}

	return reading{}
}

// readGPUPower sums power1_input across all cards, smoothed per card with
// an EMA because the raw sensor is noisy.
func (s *sysfsSensors) readGPUPower() reading {
	var total float64
	ok := false

	for _, card := range s.cards {
		raw := readCardPower(card)
		if raw <= 0 {
			continue
		}

		ema := s.gpuEMA[card]
		if ema == nil {
			ema = pkg.NewEMA(0.3)
			s.gpuEMA[card] = ema
		}

		total += ema.Add(raw)
		ok = true
	}

	return reading{value: total, ok: ok}
}

func readCardPower(card string) float64 {
	hwmonDir := "/sys/class/drm/" + card + "/device/hwmon"
	hwmons, err := os.ReadDir(hwmonDir)
	if err != nil {
		return 0
	}

	for _, hw := range hwmons {
		b, err := os.ReadFile(hwmonDir + "/" + hw.Name() + "/power1_input")
		if err != nil {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			continue
		}
		return v / 1e6
	}

	return 0
}

func (s *sysfsSensors) readGPUUtilization() reading {
	for _, card := range s.cards {
		b, err := os.ReadFile("/sys/class/drm/" + card + "/device/gpu_busy_percent")
		if err != nil {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			continue
		}
		return reading{value: v, ok: true}
	}

	return reading{}
}

func (s *sysfsSensors) readGPUTemperature() reading {
	for _, card := range s.cards {
		hwmonDir := "/sys/class/drm/" + card + "/device/hwmon"
		hwmons, err := os.ReadDir(hwmonDir)
		if err != nil {
			continue
		}

		for _, hw := range hwmons {
			b, err := os.ReadFile(hwmonDir + "/" + hw.Name() + "/temp1_input")
			if err != nil {
				continue
			}

			v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
			if err != nil {
				continue
			}
			return reading{value: v / 1000, ok: true}
		}
	}

	return reading{}
}

func readCPUTemperature() reading {
	matches, _ := filepath.Glob("/sys/class/thermal/thermal_zone*/temp")

	for _, f := range matches {
		typePath := filepath.Join(filepath.Dir(f), "type")
		zone, err := os.ReadFile(typePath)
		if err != nil {
			continue
		}

		if !pkg.ContainsAny(strings.TrimSpace(string(zone)), []string{"x86_pkg_temp", "cpu*", "k10temp", "coretemp"}) {
			continue
		}

		b, err := os.ReadFile(f)
		if err != nil {
			continue
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil {
			continue
		}
		return reading{value: v / 1000, ok: true}
	}

	return reading{}
}

func detectDRMCards() []string {
	entries, err := os.ReadDir("/sys/class/drm")
	if err != nil {
		return nil
	}

	var cards []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "card") && !strings.Contains(name, "-") {
			cards = append(cards, name)
		}
	}

	return cards
}
