package index

import (
	"github.com/huandu/skiplist"
)

// Document is one indexed file. Words is the document's full word sequence,
// shared by every PostingSet the document appears in.
type Document struct {
	Path  string
	Words []string
}

// PostingSet is the set of documents containing one word, ordered and
// deduplicated by path. A nil *PostingSet is an empty set.
type PostingSet struct {
	list *skiplist.SkipList
}

func NewPostingSet() *PostingSet {
	return &PostingSet{list: skiplist.New(skiplist.String)}
}

// Add inserts doc unless a document with the same path is already present.
// It reports whether the set changed.
func (s *PostingSet) Add(doc *Document) bool {
	if s.list.Get(doc.Path) != nil {
		return false
	}
	s.list.Set(doc.Path, doc)
	return true
}

func (s *PostingSet) Len() int {
	if s == nil {
		return 0
	}
	return s.list.Len()
}

func (s *PostingSet) Contains(path string) bool {
	if s == nil {
		return false
	}
	return s.list.Get(path) != nil
}

// Documents returns the members in ascending path order.
func (s *PostingSet) Documents() []*Document {
	if s == nil {
		return nil
	}
	docs := make([]*Document, 0, s.list.Len())
	for e := s.list.Front(); e != nil; e = e.Next() {
		docs = append(docs, e.Value.(*Document))
	}
	return docs
}

// Paths returns the member paths in ascending order.
func (s *PostingSet) Paths() []string {
	if s == nil {
		return nil
	}
	paths := make([]string, 0, s.list.Len())
	for e := s.list.Front(); e != nil; e = e.Next() {
		paths = append(paths, e.Key().(string))
	}
	return paths
}

// Union returns a new set holding the members of s and other. Neither
// operand is modified.
func (s *PostingSet) Union(other *PostingSet) *PostingSet {
	result := NewPostingSet()
	a, b := s.front(), other.front()
	for a != nil || b != nil {
		switch {
		case b == nil:
			result.list.Set(a.Key(), a.Value)
			a = a.Next()
		case a == nil:
			result.list.Set(b.Key(), b.Value)
			b = b.Next()
		default:
			ka, kb := a.Key().(string), b.Key().(string)
			switch {
			case ka < kb:
				result.list.Set(ka, a.Value)
				a = a.Next()
			case ka > kb:
				result.list.Set(kb, b.Value)
				b = b.Next()
			default:
				result.list.Set(ka, a.Value)
				a, b = a.Next(), b.Next()
			}
		}
	}
	return result
}

// Intersection returns a new set holding the members present in both s and
// other.
func (s *PostingSet) Intersection(other *PostingSet) *PostingSet {
	result := NewPostingSet()
	a, b := s.front(), other.front()
	for a != nil && b != nil {
		ka, kb := a.Key().(string), b.Key().(string)
		switch {
		case ka < kb:
			a = a.Next()
		case ka > kb:
			b = b.Next()
		default:
			result.list.Set(ka, a.Value)
			a, b = a.Next(), b.Next()
		}
	}
	return result
}

// Difference returns a new set holding the members of s that are not in
// other.
func (s *PostingSet) Difference(other *PostingSet) *PostingSet {
	result := NewPostingSet()
	a, b := s.front(), other.front()
	for a != nil {
		if b == nil {
			result.list.Set(a.Key(), a.Value)
			a = a.Next()
			continue
		}
		ka, kb := a.Key().(string), b.Key().(string)
		switch {
		case ka < kb:
			result.list.Set(ka, a.Value)
			a = a.Next()
		case ka > kb:
			b = b.Next()
		default:
			a, b = a.Next(), b.Next()
		}
	}
	return result
}

func (s *PostingSet) front() *skiplist.Element {
	if s == nil {
		return nil
	}
	return s.list.Front()
}
