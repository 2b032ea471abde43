package inventory

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"powerscope-server/internal/domain"
)

var trailingDigits = regexp.MustCompile(`\d+$`)

func (d *Detector) detectStorage(ctx context.Context) (domain.Component, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return domain.Component{}, err
	}

	c := defaultStorage()
	c.RatedPowerWatts = 0

	var devices []domain.StorageDevice
	for _, p := range parts {
		if p.Device == "" {
			continue
		}

		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			d.log.Debug("failed to stat mounted volume", "mountpoint", p.Mountpoint, "error", err)
			continue
		}

		ssd := isSSD(p.Device)
		watts := float64(DefaultHDDWatts)
		if ssd {
			watts = DefaultSSDWatts
		}

		devices = append(devices, domain.StorageDevice{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Fstype:     p.Fstype,
			TotalBytes: usage.Total,
			IsSSD:      ssd,
			PowerWatts: watts,
		})
		c.RatedPowerWatts += watts
	}

	if len(devices) == 0 {
		return defaultStorage(), nil
	}

	c.Details = map[string]any{"devices": devices}
	return c, nil
}

// isSSD classifies a block device via the sysfs rotational flag.
// Indeterminate devices are treated as rotating disks.
func isSSD(device string) bool {
	name := filepath.Base(device)

	if strings.HasPrefix(name, "nvme") {
		return true
	}

	// Strip the partition suffix: sda1 -> sda.
	name = trailingDigits.ReplaceAllString(name, "")

	rotational := readSysFile("/sys/block/" + name + "/queue/rotational")
	return rotational == "0"
}
