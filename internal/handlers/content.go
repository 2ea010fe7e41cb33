package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/lovance/backend/internal/middleware"
	"github.com/lovance/backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ContentHandler handles content exchange HTTP requests
type ContentHandler struct {
	contentService *services.ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// UploadRequest is the body for POST /api/v1/media/uploads
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// CreateUpload handles POST /api/v1/media/uploads
func (h *ContentHandler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	upload, err := h.contentService.UploadURL(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to presign upload")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("media_id", upload.MediaID).
		Msg("Upload URL generated")

	respondJSON(w, http.StatusOK, upload)
}

// Create handles POST /api/v1/content
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateContentParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	content, err := h.contentService.Create(ctx, userID, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("content_type", string(req.Type)).
			Msg("Failed to create content")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("content_id", content.ID).
		Str("content_type", string(content.Type)).
		Msg("Content created")

	respondJSON(w, http.StatusCreated, content)
}

// List handles GET /api/v1/content
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}

	items, total, err := h.contentService.List(ctx, userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list content")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"content": items,
		"total":   total,
	})
}

// Latest handles GET /api/v1/content/latest
func (h *ContentHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	content, err := h.contentService.Latest(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, content)
}

// MarkRead handles POST /api/v1/content/{content_id}/read
func (h *ContentHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	contentID := chi.URLParam(r, "content_id")

	if err := h.contentService.MarkRead(ctx, userID, contentID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("content_id", contentID).
			Msg("Failed to mark content read")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/content/{content_id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	contentID := chi.URLParam(r, "content_id")

	if err := h.contentService.Delete(ctx, userID, contentID); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("content_id", contentID).
			Msg("Failed to delete content")
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("content_id", contentID).
		Msg("Content deleted")

	w.WriteHeader(http.StatusNoContent)
}

// Memories handles GET /api/v1/memories
func (h *ContentHandler) Memories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	rollup, err := h.contentService.MonthRollup(ctx, userID, r.URL.Query().Get("month"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rollup)
}

// MemoryMonths handles GET /api/v1/memories/months
func (h *ContentHandler) MemoryMonths(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	months, err := h.contentService.Months(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if months == nil {
		months = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"months": months})
}
