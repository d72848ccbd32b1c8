package catalog

import (
	"sort"
	"strings"

	"github.com/hemline/stylist/internal/attr"
)

// RankedProduct pairs a product with its rank score for one query.
type RankedProduct struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// MatchResult is one filter invocation's output: the ranked products, the
// attribute set that produced them, and any constraint dropped by the
// zero-match retry. Zero products is a valid result, not an error.
type MatchResult struct {
	Products   []RankedProduct `json:"products"`
	Attributes attr.Set        `json:"attributes"`
	Relaxed    []attr.Name     `json:"relaxed,omitempty"`
}

func (m MatchResult) Empty() bool {
	return len(m.Products) == 0
}

// Options control result count and the zero-match relaxation policy.
type Options struct {
	MaxResults int
	// RelaxOrder lists constraint names least important first; on zero
	// matches the first applied one is dropped and the query retried once.
	RelaxOrder []attr.Name
}

// Color families expand to a disjunction inside the color constraint, so a
// request for "pastels" matches any pastel product, not the literal word.
var colorFamilies = map[string][]string{
	"pastels":       {"pastel pink", "pastel yellow", "pastel blue", "lavender", "mint", "baby blue"},
	"pastel colors": {"pastel pink", "pastel yellow", "pastel blue", "lavender", "mint", "baby blue"},
	"brights":       {"ruby red", "cobalt", "emerald", "fuchsia", "sunflower yellow"},
	"neutrals":      {"black", "white", "off-white", "beige", "grey", "taupe"},
	"earth tones":   {"olive", "rust", "terracotta", "brown", "sand"},
}

// Fabric families behave the same way for texture-level requests.
var fabricFamilies = map[string][]string{
	"breathable": {"Linen", "Cotton", "Cotton gauze", "Cotton poplin", "Organic cotton"},
	"silky":      {"Silk", "Satin", "Chiffon"},
	"cozy":       {"Wool-blend", "Velvet", "Ribbed jersey"},
}

// Filter applies the attribute set to the catalog as a conjunction of the
// constraints applicable to the resolved category, ranks the survivors and
// relaxes one constraint on a zero-match. Filtering the same set against
// the same catalog always yields the same ordered result.
func Filter(set attr.Set, products []Product, opts Options) MatchResult {
	result := MatchResult{Attributes: set.Clone()}

	applied := appliedConstraints(set)
	matched := apply(set, products, applied)

	if len(matched) == 0 && len(applied) > 0 {
		if dropped, ok := leastImportant(applied, opts.RelaxOrder); ok {
			result.Relaxed = append(result.Relaxed, dropped)
			matched = apply(set, products, without(applied, dropped))
		}
	}

	ranked := rank(set, matched)
	if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}
	result.Products = ranked
	return result
}

// appliedConstraints lists the attribute names that will actually constrain
// this query: present in the set and applicable to the category. With no
// category resolved, only the universal constraints apply.
func appliedConstraints(set attr.Set) []attr.Name {
	category := set.CategoryName()
	var applied []attr.Name
	for _, name := range attr.KnownNames {
		if !set.Has(name) {
			continue
		}
		switch name {
		case attr.Style, attr.Season:
			// No catalog column; these inform ranking and the knowledge
			// base, not filtering.
			continue
		}
		if attr.Applicable(category, name) {
			applied = append(applied, name)
		}
	}
	return applied
}

func apply(set attr.Set, products []Product, constraints []attr.Name) []Product {
	var out []Product
	for _, p := range products {
		ok := true
		for _, name := range constraints {
			if !satisfies(p, name, set[name]) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// satisfies checks one product field against one constraint. A product
// missing the field (column absent for its category) passes: the
// constraint is not applicable to it.
func satisfies(p Product, name attr.Name, v attr.Value) bool {
	switch name {
	case attr.Category:
		return strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(v.One))
	case attr.Budget:
		return p.Price <= v.Number
	case attr.Size:
		for _, s := range p.AvailableSizes {
			if attr.SizesMatch(s, v.One) {
				return true
			}
		}
		return len(p.AvailableSizes) == 0
	case attr.Fit:
		return fieldMatches(p.Fit, expand(v, nil), true)
	case attr.Fabric:
		return fieldMatches(p.Fabric, expand(v, fabricFamilies), false)
	case attr.ColorOrPrint:
		return fieldMatches(p.Color, expand(v, colorFamilies), false)
	case attr.SleeveLength:
		return fieldMatches(p.SleeveLength, expand(v, nil), false)
	case attr.Neckline:
		return fieldMatches(p.Neckline, expand(v, nil), false)
	case attr.Length:
		return fieldMatches(p.Length, expand(v, nil), true)
	case attr.PantType:
		return fieldMatches(p.PantType, expand(v, nil), false)
	case attr.Occasion:
		return fieldMatches(p.Occasion, expand(v, nil), false)
	default:
		return true
	}
}

// expand flattens a value into its candidate strings, substituting family
// members for family names.
func expand(v attr.Value, families map[string][]string) []string {
	var out []string
	for _, s := range v.Strings() {
		if members, ok := families[strings.ToLower(strings.TrimSpace(s))]; ok {
			out = append(out, members...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// fieldMatches reports whether the product field equals (or, for free-text
// fields, contains) any of the wanted values. An empty field means the
// attribute does not apply to this product.
func fieldMatches(field string, wanted []string, exact bool) bool {
	if strings.TrimSpace(field) == "" {
		return true
	}
	f := strings.ToLower(field)
	for _, w := range wanted {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if exact && f == w {
			return true
		}
		if !exact && strings.Contains(f, w) {
			return true
		}
	}
	return false
}

// rank orders survivors by how many of the requested attributes each one
// satisfies (a relaxed constraint can still score), breaking ties by price
// proximity under budget and finally by product id for determinism.
func rank(set attr.Set, products []Product) []RankedProduct {
	budget, hasBudget := set.Get(attr.Budget)

	ranked := make([]RankedProduct, len(products))
	for i, p := range products {
		score := 0.0
		for name, v := range set {
			switch name {
			case attr.Category, attr.Budget, attr.Size, attr.Style, attr.Season:
				continue
			}
			if satisfiesStrictly(p, name, v) {
				score++
			}
		}
		ranked[i] = RankedProduct{Product: p, Score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if hasBudget {
			di := budget.Number - ranked[i].Product.Price
			dj := budget.Number - ranked[j].Product.Price
			if di != dj {
				return di < dj
			}
		}
		return ranked[i].Product.ID < ranked[j].Product.ID
	})
	return ranked
}

// satisfiesStrictly is the scoring variant of satisfies: a product with an
// empty field earns no credit even though it passes the constraint.
func satisfiesStrictly(p Product, name attr.Name, v attr.Value) bool {
	switch name {
	case attr.Fit:
		return p.Fit != "" && satisfies(p, name, v)
	case attr.Fabric:
		return p.Fabric != "" && satisfies(p, name, v)
	case attr.ColorOrPrint:
		return p.Color != "" && satisfies(p, name, v)
	case attr.SleeveLength:
		return p.SleeveLength != "" && satisfies(p, name, v)
	case attr.Neckline:
		return p.Neckline != "" && satisfies(p, name, v)
	case attr.Length:
		return p.Length != "" && satisfies(p, name, v)
	case attr.PantType:
		return p.PantType != "" && satisfies(p, name, v)
	case attr.Occasion:
		return p.Occasion != "" && satisfies(p, name, v)
	default:
		return satisfies(p, name, v)
	}
}

func leastImportant(applied []attr.Name, relaxOrder []attr.Name) (attr.Name, bool) {
	for _, candidate := range relaxOrder {
		if candidate == attr.Category || candidate == attr.Size || candidate == attr.Budget {
			// The generic required set is never relaxed automatically.
			continue
		}
		for _, a := range applied {
			if a == candidate {
				return candidate, true
			}
		}
	}
	return "", false
}

func without(names []attr.Name, drop attr.Name) []attr.Name {
	out := names[:0:0]
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
