package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"powerscope-server/internal/aggregate"
	"powerscope-server/internal/config"
	"powerscope-server/internal/domain"
	"powerscope-server/internal/inventory"
	"powerscope-server/internal/logger"
	"powerscope-server/internal/monitor"
	"powerscope-server/internal/power"
	"powerscope-server/internal/settings"
	"powerscope-server/internal/storage/sqlite"
	"powerscope-server/internal/transport/rest"
	"powerscope-server/internal/transport/websocket"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg)

	db, err := sqlite.NewSqliteDB(cfg.DBPath, log)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	settingsRepo := sqlite.NewSettingsRepository(db, cfg.DefaultPrice)
	componentRepo := sqlite.NewComponentRepository(db)
	readingRepo := sqlite.NewReadingRepository(db)

	settingsService := settings.NewService(ctx, settingsRepo, cfg.DefaultPrice, log)

	detector := inventory.NewDetector(log)
	detectCtx, cancelDetect := context.WithTimeout(ctx, 30*time.Second)
	envelopes := detector.Detect(detectCtx)
	cancelDetect()

	components := make([]domain.Component, 0, len(envelopes))
	for _, t := range domain.ComponentTypes {
		if c, ok := envelopes[t]; ok {
			components = append(components, c)
		}
	}
	if err := componentRepo.SaveComponents(ctx, components); err != nil {
		log.Error("failed to persist component inventory", "error", err)
	}

	sensors, hasSensors := power.NewSysfsSensors(log)
	if hasSensors {
		log.Info("hardware power sensors available")
	} else {
		sensors = nil
		log.Info("no hardware power sensors, using utilization estimation")
	}

	sessionID := uuid.New()
	estimator := power.NewEstimator(log, sessionID, cfg.PollInterval, envelopes, sensors, settingsService.Price)

	engine := aggregate.NewEngine(readingRepo, cfg.PollInterval, log)

	hub := websocket.NewHub(ctx, log)
	go hub.Run()
	defer hub.Stop()

	monitorService := monitor.NewService(log, engine, settingsService, componentRepo, cfg.HistorySize, hub)

	sched := power.NewScheduler(cfg.PollInterval, log, estimator.Sample, func(s domain.PowerSample) {
		monitorService.OnSample(context.Background(), s)
	})
	sched.Start()
	defer sched.Stop()

	log.Info("monitoring session started", "session_id", sessionID, "interval", cfg.PollInterval)

	wsHandler := websocket.NewHandler(hub, log, cfg)
	powerHandler := rest.NewPowerHandler(monitorService)
	componentHandler := rest.NewComponentHandler(monitorService)
	settingsHandler := rest.NewSettingsHandler(settingsService, hub)

	router := rest.NewRouter(cfg, &rest.RouterDeps{
		Ws:        wsHandler,
		Power:     powerHandler,
		Component: componentHandler,
		Settings:  settingsHandler,
	})

	srv := rest.NewServer(router, cfg.Address)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "address", cfg.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http server shutdown error", "error", err)
		}

	case err := <-errCh:
		log.Error("http server error", "error", err)
	}

	log.Info("server stopped")
}
