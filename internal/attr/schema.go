package attr

import "strings"

// CategorySchema describes which attributes apply to a product category and
// which subset must be resolved before the catalog can be filtered. Both the
// conversation loop and the catalog filter consult this table, so the
// category-specific rules live in exactly one place.
type CategorySchema struct {
	Applicable []Name
	Required   []Name
}

// Generic required set used until the category itself is known. Category,
// size and budget must always be resolved before filtering.
var genericRequired = []Name{Category, Size, Budget}

var categorySchemas = map[string]CategorySchema{
	"top": {
		Applicable: []Name{Fit, Fabric, SleeveLength, ColorOrPrint},
	},
	"dress": {
		Applicable: []Name{Fit, Fabric, SleeveLength, ColorOrPrint, Occasion, Neckline},
	},
	"skirt": {
		Applicable: []Name{Fabric, ColorOrPrint, Length},
	},
	"pants": {
		Applicable: []Name{Fit, Fabric, ColorOrPrint, PantType},
	},
}

// Categories lists the known product categories in stable order.
func Categories() []string {
	return []string{"top", "dress", "skirt", "pants"}
}

// Applicable reports whether name constrains products of the given category.
// Category, size and budget apply everywhere; the rest depend on the schema
// table. An unknown category applies nothing category-specific.
func Applicable(category string, name Name) bool {
	switch name {
	case Category, Size, Budget:
		return true
	}
	schema, ok := categorySchemas[strings.ToLower(category)]
	if !ok {
		return false
	}
	for _, n := range schema.Applicable {
		if n == name {
			return true
		}
	}
	return false
}

// RequiredFor returns the attribute names that must be resolved before a
// catalog query may run for the given category. The per-category extras
// default to none; the Required field of the schema table is the extension
// point when a category genuinely cannot filter without more.
func RequiredFor(category string) []Name {
	required := append([]Name(nil), genericRequired...)
	schema, ok := categorySchemas[strings.ToLower(category)]
	if !ok {
		return required
	}
	return append(required, schema.Required...)
}

// Valid values per attribute, taken from the catalog data. color_or_print is
// deliberately absent: prints are free-form text.
var vocabularies = map[Name][]string{
	Category: {"top", "dress", "skirt", "pants"},
	Fit: {"Relaxed", "Stretch to fit", "Body hugging", "Tailored", "Oversized",
		"Flowy", "Bodycon", "Slim", "Sleek and straight"},
	Fabric: {"Linen", "Silk", "Cotton", "Rayon", "Satin", "Modal jersey", "Crepe",
		"Tencel", "Chambray", "Velvet", "Chiffon", "Denim", "Wool-blend",
		"Sequined velvet", "Tulle", "Organic cotton", "Viscose", "Cotton poplin",
		"Linen blend", "Cotton gauze", "Ribbed jersey", "Lace overlay", "Tencel twill"},
	SleeveLength: {"Sleeveless", "Spaghetti straps", "Straps", "Short sleeves",
		"Short flutter sleeves", "Cap sleeves", "Quarter sleeves", "Long sleeves",
		"Full sleeves", "Cropped", "Bishop sleeves", "Balloon sleeves",
		"Bell sleeves", "Halter", "Tube", "One-shoulder"},
	Neckline: {"V neck", "Sweetheart", "Square neck", "Boat neck", "Tubetop",
		"Halter", "Cowl neck", "Collar", "One-shoulder", "Polo collar",
		"Illusion bateau", "Round neck"},
	Length:   {"Mini", "Short", "Midi", "Maxi"},
	PantType: {"Wide-legged", "Ankle length", "Flared", "Wide hem", "Straight ankle", "Mid-rise", "Low-rise"},
	Occasion: {"Party", "Vacation", "Everyday", "Evening", "Work"},
	Size:     {"XS", "S", "M", "L", "XL", "XXL"},
}

// Vocabulary returns the valid values for an attribute, nil when the
// attribute is free-form (color_or_print, style, season, budget).
func Vocabulary(name Name) []string {
	return vocabularies[name]
}

// ValidValue reports whether v is an accepted value for name, ignoring case.
// Free-form attributes accept any non-empty value.
func ValidValue(name Name, v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	vocab, ok := vocabularies[name]
	if !ok {
		return true
	}
	for _, accepted := range vocab {
		if strings.EqualFold(accepted, v) {
			return true
		}
	}
	return false
}

// CanonicalValue maps v onto the vocabulary's spelling when it matches
// ignoring case, so "body hugging" stores as "Body hugging".
func CanonicalValue(name Name, v string) string {
	vocab, ok := vocabularies[name]
	if !ok {
		return v
	}
	for _, c := range vocab {
		if strings.EqualFold(c, strings.TrimSpace(v)) {
			return c
		}
	}
	return v
}

// Traditional/numeric size equivalence. US numeric sizes map onto the
// XS-XXL scale so a catalog row listing "8" still matches a request for M.
var sizeEquivalents = map[string]string{
	"xs": "XS", "extra small": "XS", "0": "XS", "2": "XS",
	"s": "S", "small": "S", "4": "S", "6": "S",
	"m": "M", "medium": "M", "8": "M", "10": "M",
	"l": "L", "large": "L", "12": "L", "14": "L",
	"xl": "XL", "extra large": "XL", "16": "XL", "18": "XL",
	"xxl": "XXL", "2xl": "XXL", "extra extra large": "XXL", "20": "XXL", "22": "XXL",
}

// NormalizeSize maps any supported size spelling to the XS-XXL scale,
// returning "" when the token is not a size.
func NormalizeSize(s string) string {
	return sizeEquivalents[strings.ToLower(strings.TrimSpace(s))]
}

// SizesMatch reports whether two size labels denote the same size under the
// equivalence table.
func SizesMatch(a, b string) bool {
	na, nb := NormalizeSize(a), NormalizeSize(b)
	return na != "" && na == nb
}
