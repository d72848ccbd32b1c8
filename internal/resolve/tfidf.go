package resolve

import (
	"math"
	"strings"
)

// lexicalIndex holds tf-idf weighted 1-3 gram vectors for every knowledge
// term. It is the textual half of the similarity signal: cheap, offline,
// and good at near-spellings ("comfy" vs "comfortable") where the
// embedding signal can miss.
type lexicalIndex struct {
	idf     map[string]float64
	vectors []map[string]float64 // parallel to the term list
}

func newLexicalIndex(terms []string) *lexicalIndex {
	df := make(map[string]int)
	grams := make([][]string, len(terms))
	for i, term := range terms {
		grams[i] = ngrams(term)
		seen := make(map[string]bool, len(grams[i]))
		for _, g := range grams[i] {
			if !seen[g] {
				seen[g] = true
				df[g]++
			}
		}
	}

	n := float64(len(terms))
	idf := make(map[string]float64, len(df))
	for g, d := range df {
		// Smoothed idf, same shape sklearn uses.
		idf[g] = math.Log((1+n)/(1+float64(d))) + 1
	}

	ix := &lexicalIndex{idf: idf, vectors: make([]map[string]float64, len(terms))}
	for i := range terms {
		ix.vectors[i] = ix.weigh(grams[i])
	}
	return ix
}

// similarity returns the cosine between a free phrase and term i.
func (ix *lexicalIndex) similarity(phrase string, i int) float64 {
	return cosineSparse(ix.weigh(ngrams(phrase)), ix.vectors[i])
}

// weigh builds a unit-length tf-idf vector; grams outside the vocabulary
// contribute nothing.
func (ix *lexicalIndex) weigh(grams []string) map[string]float64 {
	vec := make(map[string]float64)
	for _, g := range grams {
		if w, ok := ix.idf[g]; ok {
			vec[g] += w
		}
	}
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for g := range vec {
		vec[g] /= norm
	}
	return vec
}

func cosineSparse(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for g, w := range a {
		dot += w * b[g]
	}
	return dot
}

// ngrams returns word 1-grams through 3-grams, plus character trigrams of
// each word so single-word synonyms with shared stems still overlap.
func ngrams(s string) []string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	var out []string
	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	for _, w := range words {
		for i := 0; i+3 <= len(w); i++ {
			out = append(out, "#"+w[i:i+3])
		}
	}
	return out
}
