package power

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// nvidiaGPUUtilization asks nvidia-smi for the current GPU load. The
// command inherits the caller's context so a poll-tick deadline bounds it.
func nvidiaGPUUtilization(ctx context.Context) (float64, error) {
	out, err := exec.CommandContext(ctx,
		"nvidia-smi", "--query-gpu=utilization.gpu", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
}
