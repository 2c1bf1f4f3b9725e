// Package evaluator resolves a parsed query against an inverted index using
// set algebra over posting sets.
package evaluator

import (
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-search/internal/searcher/parser"
)

// Lookuper resolves a word to the documents containing it.
type Lookuper interface {
	Lookup(word string) (*index.PostingSet, bool)
}

// Evaluate walks node post-order and returns the matching documents. A nil
// or empty result means nothing matched. The returned set may be owned by
// the index and must be treated as read-only.
//
// Empty operands follow these rules: AND is empty if either side is empty,
// OR yields the non-empty side, ANDNOT yields the left side when the right
// is empty and nothing when the left is.
func Evaluate(node *parser.Node, idx Lookuper) *index.PostingSet {
	if node == nil {
		return nil
	}
	if node.IsTerm() {
		set, ok := idx.Lookup(node.Word)
		if !ok || set.Len() == 0 {
			return nil
		}
		return set
	}

	left := Evaluate(node.Left, idx)
	right := Evaluate(node.Right, idx)

	switch {
	case left.Len() == 0 && right.Len() == 0:
		return nil
	case left.Len() == 0:
		if node.Op == parser.OpOr {
			return right
		}
		return nil
	case right.Len() == 0:
		if node.Op == parser.OpOr || node.Op == parser.OpAndNot {
			return left
		}
		return nil
	}

	var result *index.PostingSet
	switch node.Op {
	case parser.OpAnd:
		result = left.Intersection(right)
	case parser.OpOr:
		result = left.Union(right)
	case parser.OpAndNot:
		result = left.Difference(right)
	}
	if result.Len() == 0 {
		return nil
	}
	return result
}
