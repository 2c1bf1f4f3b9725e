package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

const (
	defaultTop = 10
	maxTop     = 100
)

// Handler serves the in-memory search statistics.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats answers GET /api/v1/analytics?top=N. top bounds the top-query and
// zero-result rankings and is capped at maxTop.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := defaultTop
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = min(n, maxTop)
	}
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats(top))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
