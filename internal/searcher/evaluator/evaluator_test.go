package evaluator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/parser"
)

func buildIndex(t *testing.T) *index.Index {
	t.Helper()
	idx := index.New()
	docs := []struct {
		path  string
		words string
	}{
		{"doc1.txt", "cat dog cat"},
		{"doc2.txt", "dog fish"},
		{"doc3.txt", "bird cat"},
	}
	for _, d := range docs {
		if err := idx.Ingest(d.path, strings.Fields(d.words)); err != nil {
			t.Fatalf("ingest %s: %v", d.path, err)
		}
	}
	return idx
}

func eval(t *testing.T, idx *index.Index, query string) []string {
	t.Helper()
	root, err := parser.Parse(strings.Fields(query))
	if err != nil {
		t.Fatalf("Parse(%q): %v", query, err)
	}
	paths := Evaluate(root, idx).Paths()
	if paths == nil {
		paths = []string{}
	}
	return paths
}

func TestEvaluate(t *testing.T) {
	idx := buildIndex(t)
	tests := []struct {
		query string
		want  []string
	}{
		{"cat", []string{"doc1.txt", "doc3.txt"}},
		{"unicorn", []string{}},
		{"cat AND dog", []string{"doc1.txt"}},
		{"cat OR fish", []string{"doc1.txt", "doc2.txt", "doc3.txt"}},
		{"cat ANDNOT dog", []string{"doc3.txt"}},
		{"dog ANDNOT cat", []string{"doc2.txt"}},
		{"fish AND bird", []string{}},
		{"( cat OR fish ) ANDNOT bird", []string{"doc1.txt", "doc2.txt"}},

		// Empty-operand rules.
		{"unicorn AND cat", []string{}},
		{"cat AND unicorn", []string{}},
		{"unicorn OR fish", []string{"doc2.txt"}},
		{"fish OR unicorn", []string{"doc2.txt"}},
		{"unicorn ANDNOT cat", []string{}},
		{"fish ANDNOT unicorn", []string{"doc2.txt"}},
		{"unicorn OR yeti", []string{}},
		{"unicorn ANDNOT yeti", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := eval(t, idx, tt.query); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestEvaluateSetLaws(t *testing.T) {
	idx := buildIndex(t)
	words := []string{"cat", "dog", "fish", "bird", "unicorn"}
	for _, a := range words {
		for _, b := range words {
			and := toSet(eval(t, idx, a+" AND "+b))
			or := toSet(eval(t, idx, a+" OR "+b))
			orRev := toSet(eval(t, idx, b+" OR "+a))
			andNot := toSet(eval(t, idx, a+" ANDNOT "+b))
			right := toSet(eval(t, idx, b))

			for p := range and {
				if _, ok := or[p]; !ok {
					t.Errorf("%s AND %s has %s missing from OR", a, b, p)
				}
			}
			if !reflect.DeepEqual(or, orRev) {
				t.Errorf("%s OR %s is not commutative: %v vs %v", a, b, or, orRev)
			}
			for p := range andNot {
				if _, ok := right[p]; ok {
					t.Errorf("%s ANDNOT %s contains %s from %s", a, b, p, b)
				}
			}
		}
	}
}

func TestEvaluateDoesNotMutateIndex(t *testing.T) {
	idx := buildIndex(t)
	before, _ := idx.Lookup("cat")
	beforePaths := before.Paths()

	eval(t, idx, "cat OR dog OR fish")
	eval(t, idx, "cat ANDNOT dog")

	after, _ := idx.Lookup("cat")
	if !reflect.DeepEqual(after.Paths(), beforePaths) {
		t.Errorf("posting set changed: %v -> %v", beforePaths, after.Paths())
	}
}

func toSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
