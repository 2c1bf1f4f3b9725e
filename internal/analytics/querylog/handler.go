package querylog

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/analytics"
)

const (
	defaultWindow = 24 * time.Hour
	defaultTop    = 10
	maxTop        = 100
)

// Handler serves reports computed from the persisted query log.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store) *Handler {
	return &Handler{
		store:  store,
		logger: slog.Default().With("component", "query-log-handler"),
	}
}

// ZeroResults answers GET /api/v1/analytics/zero-results?window=24h&limit=10
// with the queries that most often matched nothing.
func (h *Handler) ZeroResults(w http.ResponseWriter, r *http.Request) {
	window := defaultWindow
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be a positive duration"})
			return
		}
		window = d
	}
	limit := defaultTop
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxTop)
	}

	counts, err := h.store.TopZeroResult(r.Context(), time.Now().Add(-window), limit)
	if err != nil {
		h.logger.Error("zero-result report failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query log unavailable"})
		return
	}
	if counts == nil {
		counts = []analytics.QueryCount{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"window":  window.String(),
		"queries": counts,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
