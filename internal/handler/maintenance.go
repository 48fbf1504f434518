package handler

import (
	"log"
	"net/http"

	"socialcircle/internal/httputil"
	"socialcircle/internal/service"
)

// MaintenanceHandler serves admin maintenance endpoints.
type MaintenanceHandler struct {
	maintenanceService *service.MaintenanceService
}

func NewMaintenanceHandler(maintenanceService *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{maintenanceService: maintenanceService}
}

// CleanupImages queues migration of legacy inline profile images to object
// storage. The migrations themselves run on the background workers.
// POST /admin/cleanup-images
func (h *MaintenanceHandler) CleanupImages(w http.ResponseWriter, r *http.Request) {
	resp, err := h.maintenanceService.CleanupImages(r.Context())
	if err != nil {
		log.Printf("[ERROR] CleanupImages handler: %v", err)
		httputil.WriteInternalError(w, "Failed to queue image cleanup")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
