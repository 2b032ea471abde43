package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"powerscope-server/internal/domain"
	"powerscope-server/internal/settings"
)

// PriceNotifier announces price changes to live clients.
type PriceNotifier interface {
	BroadcastPrice(pricePerKWh float64)
}

type UpdatePriceRequest struct {
	PricePerKWh float64 `json:"price_per_kwh" validate:"required,gt=0"`
}

type SettingsHandler struct {
	svc      *settings.Service
	notifier PriceNotifier
}

func NewSettingsHandler(svc *settings.Service, notifier PriceNotifier) *SettingsHandler {
	return &SettingsHandler{svc: svc, notifier: notifier}
}

func (h *SettingsHandler) ShowPrice(w http.ResponseWriter, r *http.Request) {
	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    map[string]float64{"price_per_kwh": h.svc.Price()},
	})
}

func (h *SettingsHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req UpdatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if validationErrors := ValidateStruct(req); len(validationErrors) > 0 {
		JSONValidationError(w, validationErrors)
		return
	}

	if err := h.svc.SetPrice(r.Context(), req.PricePerKWh); err != nil {
		if errors.Is(err, domain.ErrInvalidPrice) {
			JSONError(w, http.StatusBadRequest, "Price must be greater than zero")
			return
		}

		JSONError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	if h.notifier != nil {
		h.notifier.BroadcastPrice(req.PricePerKWh)
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "Price updated successfully",
		Data:    map[string]float64{"price_per_kwh": req.PricePerKWh},
	})
}
