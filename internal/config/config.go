// Package config
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Address        string
	DBPath         string
	PollInterval   time.Duration
	DefaultPrice   float64
	HistorySize    int
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
}

func Load() *Config {
	godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "powerscope.db"
	}

	interval := 5 * time.Second
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			interval = parsed
		}
	}

	price := 0.15
	if raw := os.Getenv("PRICE_PER_KWH"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			price = parsed
		}
	}

	historySize := 720
	if raw := os.Getenv("HISTORY_SIZE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			historySize = parsed
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "text"
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Address:        addr,
		DBPath:         dbPath,
		PollInterval:   interval,
		DefaultPrice:   price,
		HistorySize:    historySize,
		LogLevel:       logLevel,
		LogFormat:      logFormat,
		AllowedOrigins: origins,
	}
}
