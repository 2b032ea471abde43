package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"powerscope-server/internal/domain"
)

type ComponentRepository struct {
	db *sql.DB
}

func NewComponentRepository(db *sql.DB) domain.ComponentRepository {
	return &ComponentRepository{db: db}
}

// SaveComponents replaces the stored inventory wholesale; components are
// re-detected at startup, not updated in place.
func (r *ComponentRepository) SaveComponents(ctx context.Context, components []domain.Component) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM components`); err != nil {
		return fmt.Errorf("failed to clear components: %w", err)
	}

	for _, c := range components {
		details, err := json.Marshal(c.Details)
		if err != nil {
			return fmt.Errorf("failed to serialize component details: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO components (type, name, details, max_power) VALUES (?, ?, ?, ?)`,
			string(c.Type), c.Name, string(details), c.RatedPowerWatts)
		if err != nil {
			return fmt.Errorf("failed to insert component %s: %w", c.Type, err)
		}
	}

	return tx.Commit()
}

func (r *ComponentRepository) Components(ctx context.Context) ([]domain.Component, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, name, details, max_power FROM components ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	defer rows.Close()

	var components []domain.Component
	for rows.Next() {
		var c domain.Component
		var ctype, details string

		if err := rows.Scan(&ctype, &c.Name, &details, &c.RatedPowerWatts); err != nil {
			return nil, err
		}

		c.Type = domain.ComponentType(ctype)
		if details != "" {
			if err := json.Unmarshal([]byte(details), &c.Details); err != nil {
				return nil, fmt.Errorf("failed to decode component details: %w", err)
			}
		}

		components = append(components, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return components, nil
}
