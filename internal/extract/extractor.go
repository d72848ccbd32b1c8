package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hemline/stylist/internal/attr"
)

// Result carries what the extractor recognized in one utterance: candidate
// attributes with per-attribute confidence, plus the raw multi-word phrases
// worth sending through knowledge-base matching.
type Result struct {
	Attributes attr.Set
	Phrases    []string
	// Unmatched holds cleaned tokens no pattern recognized; the similarity
	// resolver matches them against the knowledge base.
	Unmatched []string
}

// Pattern token hits sit just below the exact-match knowledge score, so a
// knowledge payload ("bodycon" -> Body hugging) always wins the merge over
// the raw synonym token. Budget and size stay at 1.0: they are user-stated.
const tokenConfidence = 0.9

// Curated pattern lists per attribute class. Matching is case-insensitive;
// every list is stored lowercase.
var patterns = map[attr.Name][]string{
	attr.Occasion: {
		"brunch", "lunch", "dinner", "party", "wedding", "office", "work",
		"date", "casual", "formal", "business", "workout", "gym", "beach",
		"vacation", "travel", "interview", "meeting", "event", "night out",
	},
	attr.Season: {
		"summer", "winter", "spring", "fall", "autumn", "hot", "cold",
		"warm", "cool", "sunny", "rainy", "snowy",
	},
	attr.Style: {
		"casual", "formal", "business", "dressy", "elegant", "edgy",
		"bohemian", "boho", "chic", "trendy", "classic", "vintage",
		"modern", "minimalist", "romantic", "sporty", "preppy",
	},
	attr.Category: {
		"dress", "top", "tops", "pants", "skirt",
	},
	attr.Fit: {
		"relaxed", "stretch to fit", "body hugging", "tailored", "oversized",
		"flowy", "bodycon", "slim", "sleek and straight",
	},
	attr.ColorOrPrint: {
		"pastel yellow", "deep blue", "floral print", "red", "off-white",
		"midnight navy sequin", "sapphire blue", "ruby red", "black", "white",
		"navy", "pink", "green", "lavender", "mint",
	},
	attr.SleeveLength: {
		"short sleeves", "long sleeves", "sleeveless", "spaghetti straps",
		"straps", "short flutter sleeves", "cap sleeves", "quarter sleeves",
		"full sleeves", "cropped", "bishop sleeves", "balloon sleeves",
		"bell sleeves", "halter", "tube", "one-shoulder",
	},
	attr.Size: {
		"xs", "s", "m", "l", "xl", "xxl", "extra small", "small", "medium",
		"large", "extra large",
	},
}

// Compound phrases decompose into several attributes at once and are
// matched greedily, longest phrase first, before any single-token fallback.
var compounds = []struct {
	phrase string
	values map[attr.Name]string
}{
	{"summer brunch", map[attr.Name]string{attr.Season: "summer", attr.Occasion: "casual"}},
	{"winter formal", map[attr.Name]string{attr.Season: "winter", attr.Occasion: "formal"}},
	{"spring wedding", map[attr.Name]string{attr.Season: "spring", attr.Occasion: "wedding"}},
	{"fall party", map[attr.Name]string{attr.Season: "fall", attr.Occasion: "party"}},
	{"summer party", map[attr.Name]string{attr.Season: "summer", attr.Occasion: "party"}},
	{"winter date", map[attr.Name]string{attr.Season: "winter", attr.Occasion: "date"}},
	{"dinner date", map[attr.Name]string{attr.Occasion: "date"}},
	{"night out", map[attr.Name]string{attr.Occasion: "night out"}},
	{"beach vacation", map[attr.Name]string{attr.Season: "summer", attr.Occasion: "vacation"}},
}

// Filler lead-ins that carry no attribute signal.
var fillerPhrases = []string{
	"i'm looking for", "i am looking for", "can you find", "help me find",
	"could you find", "could you show me", "do you have", "i would like",
	"i'm interested in", "what do you have for", "any recommendations for",
	"please find", "please show", "please help me", "let me see",
	"i'm searching for", "i'm hunting for", "tell me about", "looking for",
	"looking to", "show me", "find me", "give me", "i want", "i need",
	"seeking", "seek",
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "in": true, "on": true,
	"at": true, "to": true, "with": true, "and": true, "or": true, "of": true,
	"something": true, "some": true, "my": true, "me": true, "is": true,
	"that": true, "this": true, "it": true, "under": true, "about": true,
}

// Budget patterns, most specific first. Each captures the numeric bound.
var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(\d+(?:\.\d{1,2})?)\s*dollars?\b`),
	regexp.MustCompile(`under\s*\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`below\s*\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`less\s*than\s*\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`budget\s*(?:of|is)?\s*\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(\d+(?:\.\d{1,2})?)\s*dollar\s*budget`),
	regexp.MustCompile(`around\s*\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`up\s*to\s*\$?(\d+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`max\s*\$?(\d+(?:\.\d{1,2})?)`),
}

var whitespace = regexp.MustCompile(`\s+`)

// domainTerms is the union of all pattern terms; stopword removal must not
// strip these even when they collide with ordinary stopwords.
var domainTerms = func() map[string]bool {
	set := map[string]bool{"fit": true, "v-neck": true}
	for _, list := range patterns {
		for _, term := range list {
			set[term] = true
			for _, w := range strings.Fields(term) {
				set[w] = true
			}
		}
	}
	return set
}()

// Analyze extracts candidate attributes from free text. It is a pure
// function of the input and the static pattern tables: unrecognized text
// yields an empty candidate set, never an error.
func Analyze(text string) Result {
	cleaned := Clean(text)
	result := Result{Attributes: attr.Set{}}

	if budget, ok := extractBudget(strings.ToLower(text)); ok {
		// A stated budget is the user's own constraint, not a guess.
		result.Attributes[attr.Budget] = attr.Numeric(budget, 1.0, attr.SourceUser)
	}

	// Compound phrases first, longest first, so "summer brunch" wins over
	// the bare "summer" and "brunch" tokens.
	remaining := cleaned
	for _, c := range sortedCompounds() {
		if !strings.Contains(remaining, c.phrase) {
			continue
		}
		result.Phrases = append(result.Phrases, c.phrase)
		for name, value := range c.values {
			setIfAbsent(result.Attributes, name, value, 1.0, attr.SourceRule)
		}
		remaining = strings.Replace(remaining, c.phrase, " ", 1)
	}

	// Multi-word pattern terms next, again longest first.
	for _, pn := range sortedPatternTerms {
		if len(strings.Fields(pn.term)) < 2 || !strings.Contains(remaining, pn.term) {
			continue
		}
		result.Phrases = append(result.Phrases, pn.term)
		applyToken(result.Attributes, pn.name, pn.term)
		remaining = strings.Replace(remaining, pn.term, " ", 1)
	}

	// Single-token fallback over what is left.
	for _, token := range tokenize(remaining) {
		matched := false
		for _, pn := range sortedPatternTerms {
			if pn.term == token {
				applyToken(result.Attributes, pn.name, token)
				matched = true
			}
		}
		if !matched {
			result.Unmatched = append(result.Unmatched, token)
		}
	}

	// A size the user spelled out is user-stated, like budget.
	if v, ok := result.Attributes.Get(attr.Size); ok {
		v.Source = attr.SourceUser
		result.Attributes[attr.Size] = v
	}

	return result
}

// Clean lowercases, strips filler lead-ins and collapses whitespace while
// preserving domain terms.
func Clean(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, "’", "'")
	for _, filler := range fillerPhrases {
		text = strings.ReplaceAll(text, filler, " ")
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

func applyToken(set attr.Set, name attr.Name, token string) {
	switch name {
	case attr.Size:
		if norm := attr.NormalizeSize(token); norm != "" {
			setIfAbsent(set, attr.Size, norm, 1.0, attr.SourceUser)
		}
	case attr.Category:
		if token == "tops" {
			token = "top"
		}
		setIfAbsent(set, name, token, tokenConfidence, attr.SourceRule)
	default:
		setIfAbsent(set, name, token, tokenConfidence, attr.SourceRule)
	}
}

func setIfAbsent(set attr.Set, name attr.Name, value string, conf float64, src attr.Provenance) {
	if set.Has(name) {
		return
	}
	set[name] = attr.Single(attr.CanonicalValue(name, value), conf, src)
}

func extractBudget(text string) (float64, bool) {
	for _, re := range budgetPatterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil || n <= 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == ';' || r == ':'
	})
	var tokens []string
	for _, f := range fields {
		if stopwords[f] && !domainTerms[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

type patternTerm struct {
	term string
	name attr.Name
}

// Built once at init and never written again; Analyze runs concurrently
// across sessions and only reads the table.
var sortedPatternTerms = func() []patternTerm {
	var terms []patternTerm
	for name, list := range patterns {
		for _, t := range list {
			terms = append(terms, patternTerm{term: t, name: name})
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i].term) != len(terms[j].term) {
			return len(terms[i].term) > len(terms[j].term)
		}
		if terms[i].term != terms[j].term {
			return terms[i].term < terms[j].term
		}
		return terms[i].name < terms[j].name
	})
	return terms
}()

func sortedCompounds() []struct {
	phrase string
	values map[attr.Name]string
} {
	sorted := append(compounds[:0:0], compounds...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].phrase) > len(sorted[j].phrase)
	})
	return sorted
}
