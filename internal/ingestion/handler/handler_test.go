package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
)

func post(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Ingest(rec, req)
	return rec
}

func TestIngestLocal(t *testing.T) {
	engine := indexer.NewEngine(ranker.IDFDocumentFrequency, nil)
	h := New(publisher.NewLocal(engine))

	rec := post(h, `{"path":"a.txt","text":"cat dog"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp ingestion.IngestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Path != "a.txt" || resp.Status != ingestion.StatusIndexed || resp.WordCount != 2 {
		t.Errorf("response = %+v", resp)
	}

	rec = post(h, `{"path":"a.txt","text":"fish"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
	if engine.Stats().Documents != 1 {
		t.Errorf("documents = %d, want 1", engine.Stats().Documents)
	}
}

func TestIngestBadRequests(t *testing.T) {
	h := New(publisher.NewLocal(indexer.NewEngine(ranker.IDFDocumentFrequency, nil)))
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"path":`},
		{"missing path", `{"text":"cat"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(h, tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

type pendingIngester struct{}

func (pendingIngester) Ingest(_ context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	return &ingestion.IngestResponse{Path: req.Path, Status: ingestion.StatusPending}, nil
}

func TestIngestAsyncAccepted(t *testing.T) {
	rec := post(New(pendingIngester{}), `{"path":"b.txt","text":"x"}`)
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}
