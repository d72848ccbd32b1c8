package extract

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemline/stylist/internal/attr"
)

func TestAnalyze_CompoundPhrase(t *testing.T) {
	res := Analyze("Something casual for a summer brunch")

	season, ok := res.Attributes.Get(attr.Season)
	require.True(t, ok)
	assert.Equal(t, "summer", season.One)

	// "summer brunch" decomposes to a casual occasion, not the literal word.
	occasion, ok := res.Attributes.Get(attr.Occasion)
	require.True(t, ok)
	assert.Equal(t, "casual", occasion.One)
	assert.Equal(t, attr.SourceRule, occasion.Source)

	assert.Contains(t, res.Phrases, "summer brunch")
}

func TestAnalyze_MultiWordTermBeatsTokens(t *testing.T) {
	res := Analyze("a dress with spaghetti straps")

	sleeve, ok := res.Attributes.Get(attr.SleeveLength)
	require.True(t, ok)
	assert.Equal(t, "Spaghetti straps", sleeve.One)
	assert.Contains(t, res.Phrases, "spaghetti straps")

	category, ok := res.Attributes.Get(attr.Category)
	require.True(t, ok)
	assert.Equal(t, "dress", category.One)
}

func TestAnalyze_Budget(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"a dress under $100", 100},
		{"something for 75 dollars", 75},
		{"my budget is 120", 120},
		{"less than $59.99", 59.99},
		{"up to 80 dollars", 80},
	}
	for _, tc := range cases {
		res := Analyze(tc.text)
		v, ok := res.Attributes.Get(attr.Budget)
		require.True(t, ok, tc.text)
		assert.Equal(t, tc.want, v.Number, tc.text)
		// A stated budget is the user's own constraint.
		assert.Equal(t, attr.SourceUser, v.Source, tc.text)
		assert.Equal(t, 1.0, v.Confidence, tc.text)
	}
}

func TestAnalyze_NoBudget(t *testing.T) {
	res := Analyze("a flowy dress for summer")
	assert.False(t, res.Attributes.Has(attr.Budget))
}

func TestAnalyze_SizeIsUserStated(t *testing.T) {
	res := Analyze("size medium please")
	v, ok := res.Attributes.Get(attr.Size)
	require.True(t, ok)
	assert.Equal(t, "M", v.One)
	assert.Equal(t, attr.SourceUser, v.Source)
}

func TestAnalyze_CategoryPlural(t *testing.T) {
	res := Analyze("show me tops")
	v, ok := res.Attributes.Get(attr.Category)
	require.True(t, ok)
	assert.Equal(t, "top", v.One)
}

func TestAnalyze_UnmatchedTokensSurvive(t *testing.T) {
	// Vibe words no pattern covers must reach the similarity resolver.
	res := Analyze("something comfy and breezy")
	assert.Contains(t, res.Unmatched, "comfy")
	assert.Contains(t, res.Unmatched, "breezy")
}

func TestAnalyze_TokenHitsStayBelowExactMatches(t *testing.T) {
	// Raw pattern tokens must rank below a full-score knowledge hit so the
	// knowledge payload wins the merge; only size and budget are certain.
	res := Analyze("a bodycon dress under $80, size M")

	assert.Less(t, res.Attributes[attr.Fit].Confidence, 1.0)
	assert.Less(t, res.Attributes[attr.Category].Confidence, 1.0)
	assert.Equal(t, 1.0, res.Attributes[attr.Size].Confidence)
	assert.Equal(t, 1.0, res.Attributes[attr.Budget].Confidence)
}

func TestAnalyze_ConcurrentCalls(t *testing.T) {
	// Analyze shares only immutable tables; concurrent turns from separate
	// sessions must not observe each other.
	texts := []string{
		"a flowy pastel dress for a summer brunch",
		"bodycon top under $50",
		"comfortable wide-legged pants, size L",
		"something for the office",
	}
	want := make([]Result, len(texts))
	for i, text := range texts {
		want[i] = Analyze(text)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, text := range texts {
				got := Analyze(text)
				assert.Equal(t, want[i].Attributes, got.Attributes)
				assert.Equal(t, want[i].Phrases, got.Phrases)
			}
		}()
	}
	wg.Wait()
}

func TestAnalyze_EmptyAndNoise(t *testing.T) {
	res := Analyze("")
	assert.Empty(t, res.Attributes)
	assert.Empty(t, res.Phrases)

	res = Analyze("hello there, how are you?")
	assert.Empty(t, res.Attributes)
}

func TestAnalyze_Deterministic(t *testing.T) {
	text := "I'm looking for a flowy pastel dress for a summer brunch, size M, under $100"
	a := Analyze(text)
	b := Analyze(text)
	assert.Equal(t, a.Attributes, b.Attributes)
	assert.Equal(t, a.Phrases, b.Phrases)
	assert.Equal(t, a.Unmatched, b.Unmatched)
}

func TestAnalyze_FullUtterance(t *testing.T) {
	res := Analyze("I'm looking for a flowy pastel dress for a summer brunch, size M, under $100")

	assert.Equal(t, "dress", res.Attributes[attr.Category].One)
	assert.Equal(t, "Flowy", res.Attributes[attr.Fit].One)
	assert.Equal(t, "M", res.Attributes[attr.Size].One)
	assert.Equal(t, 100.0, res.Attributes[attr.Budget].Number)
	assert.Equal(t, "summer", res.Attributes[attr.Season].One)
	assert.Equal(t, "casual", res.Attributes[attr.Occasion].One)
	assert.Contains(t, res.Unmatched, "pastel")
}

func TestClean_StripsFiller(t *testing.T) {
	assert.Equal(t, "a red dress", Clean("I'm looking for a red dress"))
	assert.Equal(t, "pants", Clean("  Show me   PANTS  "))
}
