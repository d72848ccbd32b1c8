package respond

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/catalog"
)

func TestQuestion(t *testing.T) {
	q := (&Renderer{}).Question(attr.Category)
	assert.Contains(t, q, "tops, dresses, skirts and pants")

	// Unlisted names still render something askable.
	q = (&Renderer{}).Question(attr.SleeveLength)
	assert.Contains(t, q, "sleeve length")
}

func TestRecommendation_SingleProduct(t *testing.T) {
	r := NewRenderer()
	set := attr.Set{attr.Occasion: attr.Single("casual", 1.0, attr.SourceRule)}
	m := catalog.MatchResult{Products: []catalog.RankedProduct{{
		Product: catalog.Product{
			ID: "D001", Name: "Slip Dress", Category: "dress", Price: 95,
			Color: "sapphire blue", Fabric: "Silk", Fit: "Body hugging",
		},
	}}}

	reply := r.Recommendation(set, m)
	assert.Contains(t, reply, "sapphire blue silk dress")
	assert.Contains(t, reply, "$95")
	assert.Contains(t, reply, "everyday wear")
	assert.Contains(t, reply, "form-fitting")
}

func TestRecommendation_MultipleProducts(t *testing.T) {
	r := NewRenderer()
	m := catalog.MatchResult{Products: []catalog.RankedProduct{
		{Product: catalog.Product{ID: "P1", Name: "A", Category: "pants", Price: 64, Color: "mint"}},
		{Product: catalog.Product{ID: "P2", Name: "B", Category: "pants", Price: 78, Color: "taupe"}},
		{Product: catalog.Product{ID: "P3", Name: "C", Category: "pants", Price: 40, Color: "rust"}},
		{Product: catalog.Product{ID: "P4", Name: "D", Category: "pants", Price: 52, Color: "olive"}},
	}}

	reply := r.Recommendation(attr.Set{}, m)
	// At most three are listed.
	assert.Equal(t, 3, strings.Count(reply, "\n- "))
	assert.Contains(t, reply, "A")
	assert.NotContains(t, reply, "D ($52)")
}

func TestRecommendation_NotesRelaxedConstraint(t *testing.T) {
	r := NewRenderer()
	m := catalog.MatchResult{
		Products: []catalog.RankedProduct{
			{Product: catalog.Product{ID: "P1", Name: "A", Category: "pants", Price: 64}},
			{Product: catalog.Product{ID: "P2", Name: "B", Category: "pants", Price: 78}},
		},
		Relaxed: []attr.Name{attr.ColorOrPrint},
	}

	reply := r.Recommendation(attr.Set{}, m)
	assert.Contains(t, reply, "set aside your color or print preference")
}

func TestRecommendation_NoMatch(t *testing.T) {
	r := NewRenderer()

	reply := r.Recommendation(attr.Set{}, catalog.MatchResult{})
	assert.Contains(t, reply, "couldn't find")

	reply = r.Recommendation(attr.Set{}, catalog.MatchResult{Relaxed: []attr.Name{attr.Fabric}})
	assert.Contains(t, reply, "even after setting aside fabric")
}

func TestRecommendation_Deterministic(t *testing.T) {
	r := NewRenderer()
	set := attr.Set{attr.Occasion: attr.Single("party", 1.0, attr.SourceRule)}
	m := catalog.MatchResult{Products: []catalog.RankedProduct{{
		Product: catalog.Product{ID: "D003", Name: "Gown", Category: "dress", Price: 148, Color: "ruby red"},
	}}}

	assert.Equal(t, r.Recommendation(set, m), r.Recommendation(set, m))
}

func TestClarification(t *testing.T) {
	assert.Contains(t, NewRenderer().Clarification(), "describe what you're looking for")
}
