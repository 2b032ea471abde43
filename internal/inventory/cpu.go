package inventory

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"

	"powerscope-server/internal/domain"
)

func (d *Detector) detectCPU(ctx context.Context) (domain.Component, error) {
	c := defaultCPU()
	c.Details = map[string]any{}

	cores, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return c, err
	}
	threads, _ := cpu.CountsWithContext(ctx, true)
	c.Details["cores"] = cores
	c.Details["threads"] = threads

	if name := readCPUModelName(); name != "" {
		c.Name = name
	} else if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		c.Name = infos[0].ModelName
	}

	if freqs, err := cpu.InfoWithContext(ctx); err == nil && len(freqs) > 0 && freqs[0].Mhz > 0 {
		c.Details["base_frequency_mhz"] = freqs[0].Mhz
	}

	if tdp := readRAPLPowerLimit(); tdp > 0 {
		c.RatedPowerWatts = tdp
	}

	return c, nil
}

func readCPUModelName() string {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				return strings.TrimSpace(parts[1])
			}
		}
	}

	return ""
}

// readRAPLPowerLimit reads the package power limit exposed by the powercap
// framework, in watts. Returns 0 when unavailable.
func readRAPLPowerLimit() float64 {
	b, err := os.ReadFile("/sys/class/powercap/intel-rapl/intel-rapl:0/constraint_0_power_limit_uw")
	if err != nil {
		return 0
	}

	uw := parseFloat(string(b))
	return uw / 1e6
}
