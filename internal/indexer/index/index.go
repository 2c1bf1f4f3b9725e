// Package index implements the in-memory inverted index: a mapping from each
// word to the PostingSet of documents containing it, plus the corpus of every
// ingested path.
//
// An Index is not safe for concurrent use. Callers that mix ingestion and
// queries from several goroutines must serialise writers against readers.
package index

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
)

type Index struct {
	postings map[string]*PostingSet
	docs     map[string]*Document
	closed   bool
}

func New() *Index {
	return &Index{
		postings: make(map[string]*PostingSet),
		docs:     make(map[string]*Document),
	}
}

// Ingest indexes words under path. The index keeps its own copy of words,
// so the caller may reuse the slice afterwards. Every PostingSet the path
// lands in references the same Document.
//
// Ingest is all-or-nothing: an empty or already indexed path is rejected
// before the index is touched.
func (idx *Index) Ingest(path string, words []string) error {
	if idx.closed {
		return apperrors.ErrIndexClosed
	}
	if path == "" {
		return fmt.Errorf("%w: empty document path", apperrors.ErrInvalidInput)
	}
	if _, exists := idx.docs[path]; exists {
		return fmt.Errorf("%w: %s", apperrors.ErrDocumentExists, path)
	}

	doc := &Document{
		Path:  path,
		Words: append([]string(nil), words...),
	}
	for _, word := range doc.Words {
		set, exists := idx.postings[word]
		if !exists {
			set = NewPostingSet()
			idx.postings[word] = set
		}
		set.Add(doc)
	}
	idx.docs[path] = doc
	return nil
}

// Lookup returns the PostingSet for word. The set belongs to the index and
// must not be modified.
func (idx *Index) Lookup(word string) (*PostingSet, bool) {
	if idx.closed {
		return nil, false
	}
	set, ok := idx.postings[word]
	return set, ok
}

// DocFreq returns how many corpus documents contain word.
func (idx *Index) DocFreq(word string) int {
	if idx.closed {
		return 0
	}
	return idx.postings[word].Len()
}

// DocCount returns the corpus size.
func (idx *Index) DocCount() int {
	return len(idx.docs)
}

// Terms returns the number of distinct indexed words.
func (idx *Index) Terms() int {
	return len(idx.postings)
}

func (idx *Index) Document(path string) (*Document, bool) {
	doc, ok := idx.docs[path]
	return doc, ok
}

// Paths returns every corpus path in ascending order.
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.docs))
	for path := range idx.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Close releases every posting set and document. Ingest fails and lookups
// miss on a closed index.
func (idx *Index) Close() {
	idx.postings = nil
	idx.docs = nil
	idx.closed = true
}

func (idx *Index) Closed() bool {
	return idx.closed
}
