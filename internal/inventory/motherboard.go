package inventory

import (
	"context"
	"errors"

	"powerscope-server/internal/domain"
)

func (d *Detector) detectMotherboard(ctx context.Context) (domain.Component, error) {
	vendor := readSysFile("/sys/devices/virtual/dmi/id/board_vendor")
	product := readSysFile("/sys/devices/virtual/dmi/id/board_name")

	if vendor == "" && product == "" {
		return domain.Component{}, errors.New("dmi board info unavailable")
	}

	c := defaultMotherboard()
	c.Name = vendor + " " + product
	c.Details = map[string]any{
		"manufacturer": vendor,
		"model":        product,
	}

	return c, nil
}
