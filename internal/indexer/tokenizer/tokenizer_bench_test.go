package tokenizer

import (
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"medium": `An inverted index maps every word to the documents containing it.
        Boolean queries combine those sets with AND, OR and ANDNOT before the
        matches are scored by term frequency and inverse document frequency.`,
	"long": strings.Repeat(`Information retrieval systems form the backbone of search
        infrastructure. The inverted index maps each word to the documents
        containing it; ranking then weighs how often the word occurs in a
        document against how rare it is across the corpus. `, 20),
}

func BenchmarkWords(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Words(text)
			}
		})
	}
}

func BenchmarkQuery(b *testing.B) {
	queries := map[string]string{
		"atom":    "search",
		"and":     "search AND index AND rank",
		"nested":  "((cat OR dog) AND (fish OR bird)) ANDNOT (lion OR tiger)",
		"compact": "(cat OR dog)ANDNOT(fish)",
	}
	for name, q := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Query(q)
			}
		})
	}
}
