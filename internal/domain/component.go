// Package domain
package domain

import "context"

type ComponentType string

const (
	ComponentCPU         ComponentType = "cpu"
	ComponentGPU         ComponentType = "gpu"
	ComponentMotherboard ComponentType = "motherboard"
	ComponentMemory      ComponentType = "memory"
	ComponentStorage     ComponentType = "storage"
)

// ComponentTypes lists the detected component kinds in display order.
var ComponentTypes = []ComponentType{
	ComponentCPU,
	ComponentGPU,
	ComponentMotherboard,
	ComponentMemory,
	ComponentStorage,
}

// Component describes one detected hardware component and its rated power
// envelope. Immutable after detection; re-detected only at startup.
type Component struct {
	Type            ComponentType  `json:"type"`
	Name            string         `json:"name"`
	RatedPowerWatts float64        `json:"rated_power_watts"`
	Details         map[string]any `json:"details,omitempty"`
}

// StorageDevice is one entry of the storage component's device list.
type StorageDevice struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	Fstype     string  `json:"fstype"`
	TotalBytes uint64  `json:"total_bytes"`
	IsSSD      bool    `json:"is_ssd"`
	PowerWatts float64 `json:"power_watts"`
}

type ComponentRepository interface {
	SaveComponents(ctx context.Context, components []Component) error
	Components(ctx context.Context) ([]Component, error)
}
