package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/parser"
)

// IDFMode selects how the inverse document frequency of a query word is
// computed.
type IDFMode string

const (
	// IDFDocumentFrequency uses ln(corpus / documents containing the word).
	IDFDocumentFrequency IDFMode = "document_frequency"
	// IDFCandidateSet uses ln(corpus / matched documents) for every word.
	IDFCandidateSet IDFMode = "candidate_set"
)

func ParseIDFMode(s string) (IDFMode, error) {
	switch IDFMode(s) {
	case "", IDFDocumentFrequency:
		return IDFDocumentFrequency, nil
	case IDFCandidateSet:
		return IDFCandidateSet, nil
	}
	return "", fmt.Errorf("unknown idf mode %q", s)
}

// CorpusStats exposes the corpus-wide counts scoring depends on.
type CorpusStats interface {
	DocCount() int
	DocFreq(word string) int
}

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// Candidate is a matched document while it is being scored. It keeps the
// document's word sequence for term-frequency counting.
type Candidate struct {
	Path  string
	Score float64
	Words []string
}

// Rank scores candidates against the non-reserved words of query and
// returns them ordered by descending score.
func Rank(candidates []*index.Document, query []string, stats CorpusStats, mode IDFMode) []ScoredDoc {
	return Assemble(Score(candidates, query, stats, mode))
}

// Score accumulates tf*idf for every query word over every candidate and
// sorts the result by descending score, ties broken by path.
func Score(candidates []*index.Document, query []string, stats CorpusStats, mode IDFMode) []Candidate {
	scored := make([]Candidate, len(candidates))
	for i, doc := range candidates {
		scored[i] = Candidate{Path: doc.Path, Words: doc.Words}
	}
	if len(scored) == 0 {
		return scored
	}

	corpus := float64(stats.DocCount())
	for _, word := range query {
		if parser.IsReserved(word) {
			continue
		}
		var idf float64
		switch mode {
		case IDFCandidateSet:
			idf = computeIDF(corpus, float64(len(scored)))
		default:
			idf = computeIDF(corpus, float64(stats.DocFreq(word)))
		}
		for i := range scored {
			scored[i].Score += computeTF(word, scored[i].Words) * idf
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Path < scored[j].Path
	})
	return scored
}

// Assemble drops the word sequences and returns the externally visible
// result list. It never returns nil.
func Assemble(candidates []Candidate) []ScoredDoc {
	result := make([]ScoredDoc, len(candidates))
	for i, c := range candidates {
		result[i] = ScoredDoc{Path: c.Path, Score: c.Score}
	}
	return result
}

func computeTF(word string, words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	count := 0
	for _, w := range words {
		if w == word {
			count++
		}
	}
	return float64(count) / float64(len(words))
}

func computeIDF(corpus float64, docs float64) float64 {
	if docs <= 0 || corpus <= 0 {
		return 0
	}
	return math.Log(corpus / docs)
}
