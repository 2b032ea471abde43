package inventory

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"powerscope-server/internal/domain"
)

var errNoGPU = errors.New("no gpu found")

func (d *Detector) detectGPU(ctx context.Context) (domain.Component, error) {
	c := defaultGPU()
	c.Details = map[string]any{}

	// nvidia-smi first: it reports both the name and the board power limit.
	if name, err := queryNvidiaSMI(ctx, "name"); err == nil && name != "" {
		c.Name = name
		c.Details["vendor"] = "NVIDIA"

		if limit, err := queryNvidiaSMI(ctx, "power.default_limit"); err == nil {
			if w := parseFloat(limit); w > 0 {
				c.RatedPowerWatts = w
			}
		}
		return c, nil
	}

	name, vendor, err := lspciGPU(ctx)
	if err != nil {
		// No vendor tool and no lspci; an amdgpu card may still be visible
		// through sysfs.
		if card := firstDRMCard(); card != "" {
			c.Name = "GPU " + readSysFile("/sys/class/drm/"+card+"/device/vendor") +
				":" + readSysFile("/sys/class/drm/"+card+"/device/device")
			return c, nil
		}
		return c, err
	}

	c.Name = name
	c.Details["vendor"] = vendor
	return c, nil
}

func queryNvidiaSMI(ctx context.Context, field string) (string, error) {
	out, err := exec.CommandContext(ctx,
		"nvidia-smi", "--query-gpu="+field, "--format=csv,noheader,nounits").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func firstDRMCard() string {
	entries, err := os.ReadDir("/sys/class/drm")
	if err != nil {
		return ""
	}

	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "card") && !strings.Contains(name, "-") {
			return name
		}
	}

	return ""
}

func lspciGPU(ctx context.Context) (name, vendor string, err error) {
	out, err := exec.CommandContext(ctx, "lspci").Output()
	if err != nil {
		return "", "", err
	}

	for line := range strings.SplitSeq(string(out), "\n") {
		lineLower := strings.ToLower(line)
		if !strings.Contains(lineLower, "vga") &&
			!strings.Contains(lineLower, "3d") &&
			!strings.Contains(lineLower, "display") {
			continue
		}

		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}

		info := strings.TrimSpace(parts[2])
		return info, detectVendor(info), nil
	}

	return "", "", errNoGPU
}

func detectVendor(info string) string {
	infoLower := strings.ToLower(info)
	switch {
	case strings.Contains(infoLower, "amd") || strings.Contains(infoLower, "ati"):
		return "AMD"
	case strings.Contains(infoLower, "nvidia"):
		return "NVIDIA"
	case strings.Contains(infoLower, "intel"):
		return "Intel"
	default:
		return "Unknown"
	}
}
