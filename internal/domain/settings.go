package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidPrice = errors.New("price per kWh must be greater than zero")
	ErrNoSample     = errors.New("no power sample recorded yet")
	ErrNoAggregates = errors.New("no daily aggregates recorded yet")
)

type SettingsRepository interface {
	Price(ctx context.Context) (float64, error)
	SetPrice(ctx context.Context, price float64) error
}
