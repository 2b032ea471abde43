// Package rest
package rest

import (
	"net/http"

	"powerscope-server/internal/config"
	"powerscope-server/internal/transport/rest/middleware"
	"powerscope-server/internal/transport/websocket"
)

type RouterDeps struct {
	Ws        *websocket.Handler
	Power     *PowerHandler
	Component *ComponentHandler
	Settings  *SettingsHandler
}

func NewRouter(cfg *config.Config, deps *RouterDeps) http.Handler {
	mux := http.NewServeMux()

	globalMw := middleware.New()
	globalMw.Use(middleware.CORS(cfg))

	// HEALTH
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// WEBSOCKET
	mux.HandleFunc("GET /ws", deps.Ws.Serve)

	// POWER
	mux.HandleFunc("GET /api/power/current", deps.Power.Current)
	mux.HandleFunc("GET /api/power/history", deps.Power.History)
	mux.HandleFunc("GET /api/power/daily", deps.Power.Daily)
	mux.HandleFunc("GET /api/power/projection", deps.Power.Projection)

	// COMPONENTS
	mux.HandleFunc("GET /api/components", deps.Component.Index)

	// SETTINGS
	mux.HandleFunc("GET /api/settings/price", deps.Settings.ShowPrice)
	mux.HandleFunc("PUT /api/settings/price", deps.Settings.UpdatePrice)

	return globalMw.Apply(mux)
}
