package inventory

import (
	"bufio"
	"context"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"

	"powerscope-server/internal/domain"
)

func (d *Detector) detectMemory(ctx context.Context) (domain.Component, error) {
	c := defaultMemory()
	c.Details = map[string]any{}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return c, err
	}
	c.Details["total_bytes"] = vm.Total
	c.Details["available_bytes"] = vm.Available

	// Stick count needs dmidecode (usually root only); assume 2 sticks when
	// it is not available.
	sticks := countMemorySticks(ctx)
	if sticks == 0 {
		sticks = 2
	}
	c.Details["sticks"] = sticks
	c.RatedPowerWatts = DefaultRAMWattsPerStick * float64(sticks)

	return c, nil
}

func countMemorySticks(ctx context.Context) int {
	out, err := exec.CommandContext(ctx, "dmidecode", "-t", "memory").Output()
	if err != nil {
		return 0
	}

	count := 0
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "Handle") && strings.Contains(line, "DMI type 17") {
			count++
		}
	}

	return count
}
