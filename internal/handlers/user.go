package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lovance/backend/internal/middleware"
	"github.com/lovance/backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService    *services.UserService
	partnerService *services.PartnerService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, partnerService *services.PartnerService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		partnerService: partnerService,
	}
}

// CreateUserRequest is the body for POST /api/v1/users
type CreateUserRequest struct {
	Name string `json:"name"`
}

// CreateUserResponse carries the new account plus its bearer token.
type CreateUserResponse struct {
	User  interface{} `json:"user"`
	Token string      `json:"token"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Register(ctx, req.Name)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user")
		respondError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("code", user.Code).
		Msg("User created")

	respondJSON(w, http.StatusOK, CreateUserResponse{User: user, Token: token})
}

// MeResponse is the profile payload for GET /api/v1/users/me
type MeResponse struct {
	User         interface{} `json:"user"`
	DaysTogether int         `json:"days_together"`
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.userService.Get(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get user")
		respondServiceError(w, err)
		return
	}

	days := 0
	if partnership, err := h.partnerService.Partnership(ctx, userID); err == nil {
		days = services.DaysTogether(user.Anniversary, partnership.CreatedAt)
	}

	respondJSON(w, http.StatusOK, MeResponse{User: user, DaysTogether: days})
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UpdateProfileParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateProfile(ctx, userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update profile")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// AvatarRequest is the body for POST /api/v1/users/me/avatar
type AvatarRequest struct {
	ContentType string `json:"content_type"`
}

// Avatar handles POST /api/v1/users/me/avatar
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	upload, err := h.userService.AvatarUploadURL(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to presign avatar upload")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, upload)
}
