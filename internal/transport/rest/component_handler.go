package rest

import (
	"net/http"

	"powerscope-server/internal/monitor"
)

type ComponentHandler struct {
	svc *monitor.Service
}

func NewComponentHandler(svc *monitor.Service) *ComponentHandler {
	return &ComponentHandler{svc: svc}
}

func (h *ComponentHandler) Index(w http.ResponseWriter, r *http.Request) {
	components, err := h.svc.Components(r.Context())
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	JSONSuccess(w, http.StatusOK, APIResponse{
		Message: "OK",
		Data:    components,
	})
}
