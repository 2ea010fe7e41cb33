package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lovance/backend/internal/middleware"
	"github.com/lovance/backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PartnerHandler handles partner pairing HTTP requests
type PartnerHandler struct {
	partnerService *services.PartnerService
}

// NewPartnerHandler creates a new partner handler
func NewPartnerHandler(partnerService *services.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

// ConnectRequest is the body for POST /api/v1/partner/connect
type ConnectRequest struct {
	PartnerCode string `json:"partner_code"`
}

// Connect handles POST /api/v1/partner/connect
func (h *PartnerHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.PartnerCode == "" {
		respondError(w, "partner_code is required", http.StatusBadRequest)
		return
	}

	partnership, err := h.partnerService.Connect(ctx, userID, req.PartnerCode)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("partner_code", req.PartnerCode).
			Msg("Failed to connect partners")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("partnership_id", partnership.ID).
		Msg("Partners connected")

	respondJSON(w, http.StatusOK, partnership)
}

// Get handles GET /api/v1/partner
func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	info, err := h.partnerService.Partner(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get partner")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Disconnect handles DELETE /api/v1/partner
func (h *PartnerHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.partnerService.Disconnect(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to disconnect partners")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Partners disconnected")

	w.WriteHeader(http.StatusNoContent)
}
