// Package sqlite
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"powerscope-server/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

func NewSqliteDB(dbPath string, log logger.Logger) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database not responding: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info("sqlite connection established successfully")

	if err := runMigration(db); err != nil {
		return nil, err
	}

	return db, nil
}

func runMigration(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS components (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		details TEXT,
		max_power REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS power_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		total_power REAL NOT NULL,
		component_data TEXT,
		cost REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_power_readings_timestamp ON power_readings (timestamp);

	CREATE TABLE IF NOT EXISTS daily_power (
		date TEXT PRIMARY KEY,
		avg_power REAL NOT NULL,
		max_power REAL NOT NULL,
		total_energy REAL NOT NULL,
		cost REAL NOT NULL,
		usage_hours REAL NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
