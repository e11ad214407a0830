package handlers

import (
	"net/http"

	"github.com/RehanEggSupplierdev/batchboard/internal/models"
	"github.com/RehanEggSupplierdev/batchboard/internal/services"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	d, err := h.dashboard.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d))
}
