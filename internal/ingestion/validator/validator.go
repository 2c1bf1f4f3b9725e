// Package validator provides input validation for ingestion requests. It
// enforces path and text constraints and returns per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion"
)

const (
	maxPathLength = 1024
	maxTextLength = 1048576
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks the path and text of req.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	path := strings.TrimSpace(req.Path)
	switch {
	case path == "":
		errs["path"] = "path is required"
	case path != req.Path:
		errs["path"] = "path must not have surrounding whitespace"
	case len(path) > maxPathLength:
		errs["path"] = fmt.Sprintf("path must be at most %d characters", maxPathLength)
	}
	if len(req.Text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
