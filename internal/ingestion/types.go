// Package ingestion defines the request/response types and Kafka event schema
// used to add documents to the index.
package ingestion

import "time"

// IngestRequest is the JSON body accepted by the document endpoint.
type IngestRequest struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// IngestResponse is returned to the caller once a document is accepted.
type IngestResponse struct {
	Path      string `json:"path"`
	Status    string `json:"status"`
	WordCount int    `json:"word_count"`
}

const (
	StatusIndexed = "INDEXED"
	StatusPending = "PENDING"
)

// IngestEvent is the Kafka message payload carrying a document to index.
type IngestEvent struct {
	Path        string    `json:"path"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}
