package rest

import (
	"errors"
	"net/http"
	"strconv"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/monitor"
)

const defaultDailyRangeDays = 7

type PowerHandler struct {
	svc *monitor.Service
}

func NewPowerHandler(svc *monitor.Service) *PowerHandler {
	return &PowerHandler{svc: svc}
}

func (h *PowerHandler) Current(w http.ResponseWriter, r *http.Request) {
	sample, err := h.svc.CurrentSample()
	if err != nil {
		if errors.Is(err, domain.ErrNoSample) {
			JSONError(w, http.StatusServiceUnavailable, "No sample collected yet")
			return
		}

		JSONError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    sample,
	})
}

func (h *PowerHandler) History(w http.ResponseWriter, r *http.Request) {
	samples := h.svc.History()

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    samples,
		Meta:    map[string]int{"count": len(samples)},
	})
}

func (h *PowerHandler) Daily(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 {
		days = defaultDailyRangeDays
	}

	aggregates, err := h.svc.Daily(r.Context(), days)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    aggregates,
		Meta:    map[string]int{"days": days, "count": len(aggregates)},
	})
}

func (h *PowerHandler) Projection(w http.ResponseWriter, r *http.Request) {
	projection, err := h.svc.Projection(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoAggregates) {
			JSONError(w, http.StatusServiceUnavailable, "Not enough data for a projection")
			return
		}

		JSONError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    projection,
	})
}
