package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"powerscope-server/internal/domain"
)

const priceKey = "price_per_kwh"

type SettingsRepository struct {
	db           *sql.DB
	defaultPrice float64
}

func NewSettingsRepository(db *sql.DB, defaultPrice float64) domain.SettingsRepository {
	return &SettingsRepository{db: db, defaultPrice: defaultPrice}
}

// Price reads the stored price. The default is stored and returned on the
// first call; a corrupt value surfaces as an error so the caller can warn
// and substitute the default.
func (r *SettingsRepository) Price(ctx context.Context) (float64, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, priceKey).Scan(&raw)

	if err == sql.ErrNoRows {
		if err := r.SetPrice(ctx, r.defaultPrice); err != nil {
			return 0, fmt.Errorf("failed to store default price: %w", err)
		}
		return r.defaultPrice, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read price: %w", err)
	}

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("stored price %q is not numeric: %w", raw, err)
	}

	return price, nil
}

func (r *SettingsRepository) SetPrice(ctx context.Context, price float64) error {
	if price <= 0 {
		return domain.ErrInvalidPrice
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		priceKey, strconv.FormatFloat(price, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("failed to store price: %w", err)
	}

	return nil
}
