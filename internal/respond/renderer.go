package respond

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/catalog"
)

// Renderer turns pipeline output into display text. Template choice is
// keyed on the content being rendered, not on randomness, so identical
// inputs always render identically.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

var singleTemplates = []string{
	"Perfect! I found %s that would be ideal for %s. It's priced at $%.0f.",
	"I recommend %s. At $%.0f it's a great fit for %s.",
	"How about %s? It's $%.0f and would work beautifully for %s.",
}

var multiIntros = []string{
	"I found %d great options for %s:",
	"Here are %d matches for %s:",
}

var friendlyFits = map[string]string{
	"relaxed":      "comfortable and loose-fitting",
	"tailored":     "structured and well-fitted",
	"bodycon":      "form-fitting and flattering",
	"body hugging": "form-fitting and flattering",
}

var friendlyOccasions = map[string]string{
	"casual":   "everyday wear",
	"everyday": "everyday wear",
	"formal":   "special occasions",
	"brunch":   "daytime get-togethers",
	"evening":  "an evening out",
	"work":     "the office",
	"party":    "a party",
}

var questions = map[attr.Name]string{
	attr.Category:     "What type of clothing are you looking for? We carry tops, dresses, skirts and pants.",
	attr.Size:         "What size do you need? Available sizes: XS, S, M, L, XL, XXL.",
	attr.Budget:       "What's your budget? You can say something like '$50', 'under $100', or '200 dollars'.",
	attr.Fit:          "How would you like it to fit? For example: relaxed, tailored, bodycon or flowy.",
	attr.ColorOrPrint: "Any color or print in mind? For example: pastels, deep blue, floral print.",
	attr.Fabric:       "Any fabric preference? For example: linen, silk, cotton or denim.",
	attr.Occasion:     "What's the occasion? For example: work, party, a date or vacation.",
	attr.Neckline:     "Any neckline preference? For example: V neck, square neck or halter.",
	attr.PantType:     "What cut of pants? For example: wide-legged, flared or ankle length.",
}

// Question renders the follow-up for one missing attribute.
func (r *Renderer) Question(name attr.Name) string {
	if q, ok := questions[name]; ok {
		return q
	}
	return fmt.Sprintf("Could you tell me more about the %s you want?", strings.ReplaceAll(string(name), "_", " "))
}

// Recommendation renders a match result conversationally.
func (r *Renderer) Recommendation(set attr.Set, m catalog.MatchResult) string {
	if m.Empty() {
		return r.noMatch(m)
	}

	context := r.context(set)
	if len(m.Products) == 1 {
		p := m.Products[0].Product
		tmpl := singleTemplates[pick(p.ID, len(singleTemplates))]
		if tmpl == singleTemplates[0] {
			return fmt.Sprintf(tmpl, describe(p), context, p.Price)
		}
		return fmt.Sprintf(tmpl, describe(p), p.Price, context)
	}

	var b strings.Builder
	intro := multiIntros[pick(m.Products[0].Product.ID, len(multiIntros))]
	b.WriteString(fmt.Sprintf(intro, min(len(m.Products), 3), context))
	for i, rp := range m.Products {
		if i == 3 {
			break
		}
		b.WriteString(fmt.Sprintf("\n- %s: %s ($%.0f)", rp.Product.Name, describe(rp.Product), rp.Product.Price))
	}
	if len(m.Relaxed) > 0 {
		b.WriteString(fmt.Sprintf("\nI set aside your %s preference to find these.", joinNames(m.Relaxed)))
	}
	return b.String()
}

func (r *Renderer) noMatch(m catalog.MatchResult) string {
	if len(m.Relaxed) > 0 {
		return fmt.Sprintf(
			"I couldn't find anything matching all your preferences, even after setting aside %s. Try adjusting your budget or size.",
			joinNames(m.Relaxed))
	}
	return "I couldn't find any items that match your criteria exactly. Try adjusting your preferences."
}

// Clarification is the reply for an utterance nothing could be read from.
func (r *Renderer) Clarification() string {
	return "I didn't catch any style details there. Could you describe what you're looking for? For example: 'a flowy pastel dress for a summer brunch, size M, under $100'."
}

func (r *Renderer) context(set attr.Set) string {
	if v, ok := set.Get(attr.Occasion); ok {
		o := strings.ToLower(v.One)
		if friendly, ok := friendlyOccasions[o]; ok {
			return friendly
		}
		return o
	}
	if v, ok := set.Get(attr.Style); ok {
		return v.One + " looks"
	}
	return "your request"
}

func describe(p catalog.Product) string {
	parts := []string{}
	if p.Color != "" {
		parts = append(parts, strings.ToLower(p.Color))
	}
	if p.Fabric != "" {
		parts = append(parts, strings.ToLower(p.Fabric))
	}
	noun := p.Category
	if noun == "" {
		noun = "piece"
	}
	d := fmt.Sprintf("a %s %s", strings.Join(parts, " "), noun)
	if fit := friendlyFits[strings.ToLower(p.Fit)]; fit != "" {
		d += fmt.Sprintf(" (%s)", fit)
	}
	return strings.Join(strings.Fields(d), " ")
}

func joinNames(names []attr.Name) string {
	var out []string
	for _, n := range names {
		out = append(out, strings.ReplaceAll(string(n), "_", " "))
	}
	return strings.Join(out, " and ")
}

func pick(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
