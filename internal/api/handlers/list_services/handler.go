package list_services

import (
	"net/http"

	"github.com/m04kA/salon-booking/internal/api/handlers"
)

type Handler struct {
	catalog CatalogProvider
	logger  Logger
}

func NewHandler(catalog CatalogProvider, logger Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger,
	}
}

// Handle GET /api/v1/services
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListActiveServices(r.Context())
	if err != nil {
		h.logger.Error("GET /services - Failed to list services: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /services - Services retrieved: count=%d", len(services))
	handlers.RespondJSON(w, http.StatusOK, FromDomain(services))
}
