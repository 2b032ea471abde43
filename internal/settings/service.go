// Package settings owns the process-wide electricity price.
package settings

import (
	"context"
	"fmt"
	"sync"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
)

// Service caches the price in memory and persists every change
// synchronously. Mutation goes through SetPrice only.
type Service struct {
	repo         domain.SettingsRepository
	defaultPrice float64
	log          logger.Logger

	mu    sync.RWMutex
	price float64
}

func NewService(ctx context.Context, repo domain.SettingsRepository, defaultPrice float64, log logger.Logger) *Service {
	s := &Service{
		repo:         repo,
		defaultPrice: defaultPrice,
		log:          log,
		price:        defaultPrice,
	}

	price, err := repo.Price(ctx)
	if err != nil || price <= 0 {
		log.Warn("stored price unavailable, using default",
			"default", defaultPrice, "error", err)
		return s
	}

	s.price = price
	return s
}

// Price returns the current price per kWh.
func (s *Service) Price() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.price
}

// SetPrice validates, persists, then updates the in-memory value.
func (s *Service) SetPrice(ctx context.Context, price float64) error {
	if price <= 0 {
		return domain.ErrInvalidPrice
	}

	if err := s.repo.SetPrice(ctx, price); err != nil {
		return fmt.Errorf("persist price: %w", err)
	}

	s.mu.Lock()
	s.price = price
	s.mu.Unlock()

	s.log.Info("price per kWh updated", "price", price)
	return nil
}
