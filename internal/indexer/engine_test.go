package indexer

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/crawler"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newScenarioEngine(t *testing.T, mode ranker.IDFMode) *Engine {
	t.Helper()
	e := NewEngine(mode, nil)
	if err := e.IndexDocument("doc1.txt", []string{"cat", "dog", "cat"}); err != nil {
		t.Fatal(err)
	}
	if err := e.IndexDocument("doc2.txt", []string{"dog", "fish"}); err != nil {
		t.Fatal(err)
	}
	return e
}

func paths(results []ranker.ScoredDoc) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Path
	}
	return out
}

func sortedPaths(results []ranker.ScoredDoc) []string {
	out := paths(results)
	sort.Strings(out)
	return out
}

func query(t *testing.T, e *Engine, q string) []ranker.ScoredDoc {
	t.Helper()
	results, err := e.Query(strings.Fields(q))
	if err != nil {
		t.Fatalf("Query(%q): %v", q, err)
	}
	return results
}

func TestQueryScenario(t *testing.T) {
	for _, mode := range []ranker.IDFMode{ranker.IDFDocumentFrequency, ranker.IDFCandidateSet} {
		t.Run(string(mode), func(t *testing.T) {
			e := newScenarioEngine(t, mode)

			got := query(t, e, "cat AND dog")
			if !reflect.DeepEqual(paths(got), []string{"doc1.txt"}) {
				t.Fatalf("cat AND dog = %v", got)
			}
			if got[0].Score <= 0 {
				t.Errorf("cat AND dog score = %v, want > 0", got[0].Score)
			}

			got = query(t, e, "cat OR fish")
			if !reflect.DeepEqual(sortedPaths(got), []string{"doc1.txt", "doc2.txt"}) {
				t.Errorf("cat OR fish = %v", got)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Score > got[i-1].Score {
					t.Errorf("results not sorted by score: %v", got)
				}
			}

			got = query(t, e, "cat ANDNOT dog")
			if got == nil || len(got) != 0 {
				t.Errorf("cat ANDNOT dog = %#v, want empty non-nil", got)
			}

			got = query(t, e, "fish")
			if !reflect.DeepEqual(paths(got), []string{"doc2.txt"}) {
				t.Errorf("fish = %v", got)
			}
		})
	}
}

func TestQueryNoMatchIsEmptyNotError(t *testing.T) {
	e := newScenarioEngine(t, ranker.IDFDocumentFrequency)
	for _, q := range []string{"unicorn", "unicorn AND cat", "fish AND cat", "unicorn ANDNOT cat"} {
		got := query(t, e, q)
		if got == nil || len(got) != 0 {
			t.Errorf("Query(%q) = %#v, want empty non-nil slice", q, got)
		}
	}
}

func TestQueryBracketIdentity(t *testing.T) {
	e := newScenarioEngine(t, ranker.IDFDocumentFrequency)
	for _, w := range []string{"cat", "dog", "fish", "unicorn"} {
		plain := query(t, e, w)
		bracketed := query(t, e, "( "+w+" )")
		if !reflect.DeepEqual(plain, bracketed) {
			t.Errorf("%s = %v but ( %s ) = %v", w, plain, w, bracketed)
		}
	}
}

func TestQuerySyntaxErrors(t *testing.T) {
	e := newScenarioEngine(t, ranker.IDFDocumentFrequency)
	tests := []struct {
		tokens []string
		want   string
	}{
		{[]string{}, "Unexpected end of input (term)"},
		{[]string{"AND"}, "Unexpected reserved word"},
		{[]string{"(", "a"}, "Missing ) bracket"},
		{[]string{"a", "b"}, "Unexpected token in the end of query"},
	}
	for _, tt := range tests {
		results, err := e.Query(tt.tokens)
		if err == nil {
			t.Errorf("Query(%v) = %v, want error", tt.tokens, results)
			continue
		}
		if results != nil {
			t.Errorf("Query(%v) returned results with an error", tt.tokens)
		}
		if !errors.Is(err, apperrors.ErrSyntax) {
			t.Errorf("Query(%v) error %v does not wrap ErrSyntax", tt.tokens, err)
		}
		if got := apperrors.Message(err); got != tt.want {
			t.Errorf("Query(%v) message = %q, want %q", tt.tokens, got, tt.want)
		}
	}
}

func TestQueryPrecedenceAffectsResults(t *testing.T) {
	e := NewEngine(ranker.IDFDocumentFrequency, nil)
	docs := map[string][]string{
		"a.txt":  {"a"},
		"bc.txt": {"b", "c"},
		"ac.txt": {"a", "c"},
	}
	for p, w := range docs {
		if err := e.IndexDocument(p, w); err != nil {
			t.Fatal(err)
		}
	}
	root, err := parser.Parse([]string{"a", "OR", "b", "AND", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if root.String() != "((a OR b) AND c)" {
		t.Fatalf("AST = %s", root)
	}
	// (a OR b) AND c excludes a.txt, which a OR (b AND c) would include.
	got := sortedPaths(query(t, e, "a OR b AND c"))
	if !reflect.DeepEqual(got, []string{"ac.txt", "bc.txt"}) {
		t.Errorf("a OR b AND c = %v", got)
	}
}

func TestIndexDocumentDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := NewEngine(ranker.IDFDocumentFrequency, m)
	if err := e.IndexDocument("a", []string{"x"}); err != nil {
		t.Fatal(err)
	}
	err := e.IndexDocument("a", []string{"y"})
	if !errors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("duplicate error = %v", err)
	}
	if got := testutil.ToFloat64(m.DocsIndexedTotal.WithLabelValues("rejected")); got != 1 {
		t.Errorf("rejected counter = %v", got)
	}
	if got := testutil.ToFloat64(m.CorpusDocuments); got != 1 {
		t.Errorf("corpus gauge = %v", got)
	}
}

func TestIndexCorpus(t *testing.T) {
	e := NewEngine(ranker.IDFDocumentFrequency, nil)
	entries := []crawler.Entry{
		{Path: "a", Words: []string{"x", "y"}},
		{Path: "b", Words: []string{"y"}},
		{Path: "a", Words: []string{"z"}},
	}
	n, err := e.IndexCorpus(context.Background(), entries)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("indexed = %d, want 2", n)
	}
	if s := e.Stats(); s.Documents != 2 || s.Terms != 2 {
		t.Errorf("Stats() = %+v", s)
	}
	if !reflect.DeepEqual(e.Paths(), []string{"a", "b"}) {
		t.Errorf("Paths() = %v", e.Paths())
	}
}

func TestClose(t *testing.T) {
	e := newScenarioEngine(t, ranker.IDFDocumentFrequency)
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.IndexDocument("doc3.txt", []string{"x"}); !errors.Is(err, apperrors.ErrIndexClosed) {
		t.Errorf("IndexDocument after Close = %v", err)
	}
	if got := query(t, e, "cat"); len(got) != 0 {
		t.Errorf("query after Close = %v", got)
	}
}
