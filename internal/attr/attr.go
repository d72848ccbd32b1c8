package attr

import (
	"fmt"
	"strings"
)

// Name identifies one facet of a product. The set of names is closed:
// every component validates against KnownNames instead of passing around
// untyped key/value maps.
type Name string

const (
	Category     Name = "category"
	Style        Name = "style"
	Fit          Name = "fit"
	ColorOrPrint Name = "color_or_print"
	Fabric       Name = "fabric"
	Occasion     Name = "occasion"
	Season       Name = "season"
	Size         Name = "size"
	Budget       Name = "budget"
	SleeveLength Name = "sleeve_length"
	Neckline     Name = "neckline"
	Length       Name = "length"
	PantType     Name = "pant_type"
)

var KnownNames = []Name{
	Category, Style, Fit, ColorOrPrint, Fabric, Occasion, Season,
	Size, Budget, SleeveLength, Neckline, Length, PantType,
}

func ParseName(s string) (Name, bool) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range KnownNames {
		if n == k {
			return k, true
		}
	}
	return "", false
}

// Provenance records where a value came from, and arbitrates merges:
// user-stated beats rule beats inference at equal confidence.
type Provenance string

const (
	SourceRule      Provenance = "rule"
	SourceInference Provenance = "inference"
	SourceUser      Provenance = "user-stated"
)

func (p Provenance) rank() int {
	switch p {
	case SourceUser:
		return 2
	case SourceRule:
		return 1
	default:
		return 0
	}
}

// Value holds one resolved attribute: a single string, a list of
// alternatives, or a numeric bound (budget). Confidence is in [0,1].
type Value struct {
	One        string     `json:"one,omitempty"`
	Many       []string   `json:"many,omitempty"`
	Number     float64    `json:"number,omitempty"`
	Confidence float64    `json:"confidence"`
	Source     Provenance `json:"source"`
}

func Single(v string, conf float64, src Provenance) Value {
	return Value{One: v, Confidence: clamp(conf), Source: src}
}

func List(vs []string, conf float64, src Provenance) Value {
	return Value{Many: vs, Confidence: clamp(conf), Source: src}
}

func Numeric(n float64, conf float64, src Provenance) Value {
	return Value{Number: n, Confidence: clamp(conf), Source: src}
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Strings returns the value as a list, whatever shape it was stored in.
func (v Value) Strings() []string {
	if len(v.Many) > 0 {
		return v.Many
	}
	if v.One != "" {
		return []string{v.One}
	}
	return nil
}

func (v Value) String() string {
	if v.One != "" {
		return v.One
	}
	if len(v.Many) > 0 {
		return strings.Join(v.Many, ", ")
	}
	if v.Number != 0 {
		return fmt.Sprintf("%g", v.Number)
	}
	return ""
}

// Set maps attribute names to values. At most one Value per Name.
type Set map[Name]Value

// Get returns the value and whether it is present with any content.
func (s Set) Get(n Name) (Value, bool) {
	v, ok := s[n]
	if !ok {
		return Value{}, false
	}
	if v.One == "" && len(v.Many) == 0 && v.Number == 0 {
		return Value{}, false
	}
	return v, true
}

func (s Set) Has(n Name) bool {
	_, ok := s.Get(n)
	return ok
}

// Confidence reports the stored confidence for a name, zero when absent.
func (s Set) Confidence(n Name) float64 {
	v, ok := s.Get(n)
	if !ok {
		return 0
	}
	return v.Confidence
}

// Merge folds delta into s under the precedence rule: a user-stated value
// is never replaced by a lower-provenance source regardless of confidence;
// otherwise higher confidence wins and ties keep the existing value, which
// preserves what the user has already seen accepted.
func (s Set) Merge(delta Set) {
	for name, incoming := range delta {
		existing, ok := s.Get(name)
		if !ok {
			s[name] = incoming
			continue
		}
		if existing.Source == SourceUser && incoming.Source != SourceUser {
			continue
		}
		if incoming.Confidence > existing.Confidence {
			s[name] = incoming
			continue
		}
		if incoming.Confidence == existing.Confidence &&
			incoming.Source.rank() > existing.Source.rank() {
			s[name] = incoming
		}
	}
}

// Clone returns an independent copy; Values are copied by value and the
// Many slices duplicated so callers cannot alias session state.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name, v := range s {
		if len(v.Many) > 0 {
			v.Many = append([]string(nil), v.Many...)
		}
		out[name] = v
	}
	return out
}

// CategoryName returns the resolved category in lowercase, or "".
func (s Set) CategoryName() string {
	v, ok := s.Get(Category)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.One))
}
