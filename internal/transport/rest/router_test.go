package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"powerscope-server/internal/aggregate"
	"powerscope-server/internal/config"
	"powerscope-server/internal/domain"
	"powerscope-server/internal/logger"
	"powerscope-server/internal/monitor"
	"powerscope-server/internal/settings"
	"powerscope-server/internal/transport/websocket"
)

type fakeReadings struct {
	daily map[string]domain.DailyAggregate
}

func (f *fakeReadings) SaveReading(context.Context, domain.PowerSample) error { return nil }

func (f *fakeReadings) ReadingsForDate(context.Context, time.Time) ([]domain.PowerSample, error) {
	return nil, nil
}

func (f *fakeReadings) UpsertDaily(_ context.Context, agg domain.DailyAggregate) error {
	f.daily[agg.Date] = agg
	return nil
}

func (f *fakeReadings) DailyRange(context.Context, int) ([]domain.DailyAggregate, error) {
	var out []domain.DailyAggregate
	for _, agg := range f.daily {
		out = append(out, agg)
	}
	return out, nil
}

type fakeSettingsRepo struct{ price float64 }

func (f *fakeSettingsRepo) Price(context.Context) (float64, error)      { return f.price, nil }
func (f *fakeSettingsRepo) SetPrice(_ context.Context, p float64) error { f.price = p; return nil }

type fakeComponents struct{}

func (fakeComponents) SaveComponents(context.Context, []domain.Component) error { return nil }

func (fakeComponents) Components(context.Context) ([]domain.Component, error) {
	return []domain.Component{{Type: domain.ComponentCPU, Name: "Test CPU", RatedPowerWatts: 65}}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *monitor.Service, *settings.Service) {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{Address: ":0", AllowedOrigins: []string{"http://localhost:5173"}}

	engine := aggregate.NewEngine(&fakeReadings{daily: map[string]domain.DailyAggregate{}}, 5*time.Second, log)
	settingsService := settings.NewService(context.Background(), &fakeSettingsRepo{price: 0.15}, 0.15, log)
	monitorService := monitor.NewService(log, engine, settingsService, fakeComponents{}, 10, nil)

	hub := websocket.NewHub(context.Background(), log)
	router := NewRouter(cfg, &RouterDeps{
		Ws:        websocket.NewHandler(hub, log, cfg),
		Power:     NewPowerHandler(monitorService),
		Component: NewComponentHandler(monitorService),
		Settings:  NewSettingsHandler(settingsService, nil),
	})
	return router, monitorService, settingsService
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCurrentBeforeFirstSample(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/power/current", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCurrentReturnsLatestSample(t *testing.T) {
	router, svc, _ := newTestRouter(t)
	svc.OnSample(context.Background(), domain.PowerSample{
		Timestamp:       time.Now(),
		TotalPowerWatts: 142.5,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/power/current", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data domain.PowerSample `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.TotalPowerWatts != 142.5 {
		t.Fatalf("total = %v, want 142.5", resp.Data.TotalPowerWatts)
	}
}

func TestComponentsIndex(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/components", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data []domain.Component `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Name != "Test CPU" {
		t.Fatalf("unexpected components: %+v", resp.Data)
	}
}

func TestUpdatePrice(t *testing.T) {
	router, _, settingsService := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/settings/price", strings.NewReader(`{"price_per_kwh":0.25}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if settingsService.Price() != 0.25 {
		t.Fatalf("price = %v, want 0.25", settingsService.Price())
	}
}

func TestUpdatePriceValidation(t *testing.T) {
	router, _, settingsService := newTestRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"price_per_kwh":`, http.StatusBadRequest},
		{"missing price", `{}`, http.StatusUnprocessableEntity},
		{"zero price", `{"price_per_kwh":0}`, http.StatusUnprocessableEntity},
		{"negative price", `{"price_per_kwh":-0.10}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/settings/price", strings.NewReader(tt.body))
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if settingsService.Price() != 0.15 {
		t.Fatalf("price changed to %v, want untouched 0.15", settingsService.Price())
	}
}

func TestDailyUsesDefaultRange(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/power/daily", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Meta map[string]int `json:"meta"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta["days"] != defaultDailyRangeDays {
		t.Fatalf("days = %d, want %d", resp.Meta["days"], defaultDailyRangeDays)
	}
}

func TestProjectionWithoutData(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/power/projection", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/power/current", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow-origin = %q, want echoed origin", got)
	}
}
