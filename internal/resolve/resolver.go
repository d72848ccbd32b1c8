package resolve

import (
	"context"
	"log"
	"math"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/extract"
	"github.com/hemline/stylist/internal/knowledge"
	"github.com/hemline/stylist/internal/llm"
)

// Match records one accepted knowledge-base hit, for diagnosis.
type Match struct {
	Phrase string  `json:"phrase"`
	Term   string  `json:"term"`
	Domain string  `json:"domain"`
	Score  float64 `json:"score"`
}

// Outcome is the resolver's result: the attribute set assembled from the
// extractor candidates plus every knowledge entry that cleared the
// threshold, and the matches that produced it.
type Outcome struct {
	Attributes attr.Set
	Matches    []Match
}

// Resolver scores extractor output against the knowledge base using two
// complementary signals and keeps whichever is stronger per entry: the
// embedding catches synonyms with no shared tokens ("form-fitting" ->
// "bodycon"), the lexical index catches shared-stem spellings the
// embedding may rank low ("comfy" -> "comfortable").
type Resolver struct {
	kb          *knowledge.Base
	threshold   float64
	lex         *lexicalIndex
	termVectors [][]float32 // parallel to kb.Entries(); nil when embeddings are unavailable
	embedder    llm.EmbedderClient
}

// NewResolver builds the lexical index and caches one embedding per
// knowledge term. A nil or failing embedder is not an error: the resolver
// degrades to the lexical signal only.
func NewResolver(ctx context.Context, kb *knowledge.Base, embedder llm.EmbedderClient, threshold float64) *Resolver {
	r := &Resolver{
		kb:        kb,
		threshold: threshold,
		lex:       newLexicalIndex(kb.Terms()),
		embedder:  embedder,
	}

	if embedder == nil {
		return r
	}

	vectors := make([][]float32, kb.Len())
	for i, term := range kb.Terms() {
		vec, err := embedder.Embed(ctx, term)
		if err != nil {
			log.Printf("knowledge embedding unavailable (%q): %v; using lexical similarity only", term, err)
			return r
		}
		vectors[i] = vec
	}
	r.termVectors = vectors
	return r
}

func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Resolve matches every candidate phrase, unmatched token and extracted
// single value against the knowledge base. Resolution over identical input
// and knowledge base is deterministic: entries are scanned in sorted term
// order and ties break toward the longer (more specific) term.
func (r *Resolver) Resolve(ctx context.Context, res extract.Result) Outcome {
	out := Outcome{Attributes: res.Attributes.Clone()}

	for _, candidate := range candidates(res) {
		entry, score, ok := r.bestMatch(ctx, candidate)
		if !ok || score < r.threshold {
			continue
		}
		out.Matches = append(out.Matches, Match{
			Phrase: candidate,
			Term:   entry.Term,
			Domain: entry.Domain,
			Score:  score,
		})
		delta := attr.Set{}
		for name, v := range entry.Payload {
			v.Confidence = score
			v.Source = attr.SourceRule
			delta[name] = v
		}
		out.Attributes.Merge(delta)
	}

	return out
}

// bestMatch scans every knowledge entry for the highest combined score.
func (r *Resolver) bestMatch(ctx context.Context, phrase string) (knowledge.Entry, float64, bool) {
	if entry, ok := r.kb.Lookup(phrase); ok {
		return entry, 1.0, true
	}

	var queryVec []float32
	if r.termVectors != nil && r.embedder != nil {
		vec, err := r.embedder.Embed(ctx, phrase)
		if err != nil {
			log.Printf("embedding failed for %q: %v; falling back to lexical similarity", phrase, err)
		} else {
			queryVec = vec
		}
	}

	var (
		best      knowledge.Entry
		bestScore float64
		found     bool
	)
	for i, entry := range r.kb.Entries() {
		score := r.lex.similarity(phrase, i)
		if queryVec != nil && r.termVectors[i] != nil {
			if sem := cosine32(queryVec, r.termVectors[i]); sem > score {
				score = sem
			}
		}
		if entry.Weight != 1.0 {
			score = math.Min(1.0, score*entry.Weight)
		}
		if score > bestScore ||
			(score == bestScore && found && entry.TokenCount() > best.TokenCount()) {
			best, bestScore, found = entry, score, true
		}
	}
	return best, bestScore, found
}

// Gaps names the required attributes that are still unresolved or resolved
// below the similarity threshold. The caller invokes the inference fallback
// exactly when this is non-empty: the threshold check lives here and
// nowhere else.
func (r *Resolver) Gaps(out Outcome, required []attr.Name) []attr.Name {
	var gaps []attr.Name
	for _, name := range required {
		v, ok := out.Attributes.Get(name)
		if !ok {
			gaps = append(gaps, name)
			continue
		}
		if v.Source != attr.SourceUser && v.Confidence < r.threshold {
			gaps = append(gaps, name)
		}
	}
	return gaps
}

func candidates(res extract.Result) []string {
	var cands []string
	cands = append(cands, res.Phrases...)
	cands = append(cands, res.Unmatched...)
	for _, name := range attr.KnownNames {
		if name == attr.Size || name == attr.Budget {
			continue
		}
		if v, ok := res.Attributes.Get(name); ok && v.One != "" {
			cands = append(cands, v.One)
		}
	}

	seen := make(map[string]bool, len(cands))
	var uniq []string
	for _, c := range cands {
		if len(c) < 2 || seen[c] {
			continue
		}
		seen[c] = true
		uniq = append(uniq, c)
	}
	return uniq
}

func cosine32(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
