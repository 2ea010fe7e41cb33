package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lovance/backend/internal/middleware"
	"github.com/lovance/backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// DeviceHandler handles push token registration HTTP requests
type DeviceHandler struct {
	deviceService *services.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// RegisterDeviceRequest is the body for PUT /api/v1/devices
type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Register handles PUT /api/v1/devices
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Token == "" {
		respondError(w, "token is required", http.StatusBadRequest)
		return
	}

	device, err := h.deviceService.Register(ctx, userID, req.Token, req.Platform)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register device")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// Delete handles DELETE /api/v1/devices/{token}
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	deviceToken := chi.URLParam(r, "token")

	if err := h.deviceService.Remove(ctx, userID, deviceToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to remove device")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
