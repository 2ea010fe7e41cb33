package handlers

import (
	"net/http"

	"github.com/lovance/backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler answers liveness probes by pinging the backing stores.
type HealthHandler struct {
	db    *pgxpool.Pool
	redis *cache.SnapshotStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *pgxpool.Pool, redis *cache.SnapshotStore) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := h.redis.Ping(ctx); err != nil {
		respondError(w, "cache unavailable", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
