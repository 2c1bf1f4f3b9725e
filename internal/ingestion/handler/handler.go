package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/logger"
)

// Ingester is implemented by publisher.Local and publisher.Publisher.
type Ingester interface {
	Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error)
}

type Handler struct {
	ingester Ingester
	logger   *slog.Logger
}

func New(ingester Ingester) *Handler {
	return &Handler{
		ingester: ingester,
		logger:   slog.Default().With("component", "ingestion-handler"),
	}
}

func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateIngestRequest(&req); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.ingester.Ingest(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed",
			"path", req.Path,
			"error", err,
			"status_code", statusCode,
		)
		message := "ingestion failed"
		if errors.Is(err, apperrors.ErrDocumentExists) {
			message = "document already exists"
		}
		h.writeError(w, statusCode, message)
		return
	}
	log.Info("document ingested",
		"path", resp.Path,
		"status", resp.Status,
		"word_count", resp.WordCount,
	)
	status := http.StatusCreated
	if resp.Status == ingestion.StatusPending {
		status = http.StatusAccepted
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
