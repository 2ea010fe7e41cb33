package handlers

import (
	"net/http"

	"github.com/lovance/backend/internal/middleware"
	"github.com/lovance/backend/internal/services"

	"github.com/rs/zerolog/log"
)

// WidgetHandler serves the widget snapshot to the OS widget process.
type WidgetHandler struct {
	widgetService *services.WidgetService
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(widgetService *services.WidgetService) *WidgetHandler {
	return &WidgetHandler{widgetService: widgetService}
}

// Get handles GET /api/v1/widget
func (h *WidgetHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	snapshot, err := h.widgetService.Snapshot(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to build widget snapshot")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
