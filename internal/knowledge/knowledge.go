package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hemline/stylist/internal/attr"
)

// The four mapping documents that make up the knowledge base. Each maps a
// vibe term to a partial attribute object; occasion entries may populate
// several attribute names at once.
var Domains = []string{"fit", "color", "occasion", "fabric"}

// Entry is one term -> partial attribute set mapping. Immutable after load.
type Entry struct {
	Term    string
	Domain  string
	Payload attr.Set
	Weight  float64
}

// TokenCount reports how many whitespace tokens the term has; the resolver
// prefers longer terms when scores tie.
func (e Entry) TokenCount() int {
	return len(strings.Fields(e.Term))
}

// Base is the loaded knowledge base. Entries are sorted by term so every
// scan over them is deterministic. Read-only after Load; safe to share
// across sessions without locking.
type Base struct {
	entries []Entry
	byTerm  map[string]int
}

// Load reads the mapping documents from dir. Any missing file, malformed
// document, unknown attribute name or unusable value fails the load: the
// system must refuse to start on a partial knowledge base. Load may be
// called again at any time; it builds a fresh Base and leaves previously
// returned ones untouched.
func Load(dir string) (*Base, error) {
	var entries []Entry
	for _, domain := range Domains {
		path := filepath.Join(dir, domain+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read knowledge file '%s': %w", path, err)
		}

		var raw map[string]map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		for term, fields := range raw {
			entry, err := buildEntry(term, domain, fields)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Term < entries[j].Term })

	byTerm := make(map[string]int, len(entries))
	for i, e := range entries {
		byTerm[e.Term] = i
	}

	return &Base{entries: entries, byTerm: byTerm}, nil
}

func buildEntry(term, domain string, fields map[string]any) (Entry, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return Entry{}, fmt.Errorf("empty term in %s mapping", domain)
	}

	entry := Entry{Term: term, Domain: domain, Payload: attr.Set{}, Weight: 1.0}
	for key, val := range fields {
		if key == "weight" {
			w, ok := val.(float64)
			if !ok {
				return Entry{}, fmt.Errorf("term %q: weight must be a number", term)
			}
			entry.Weight = w
			continue
		}

		name, ok := attr.ParseName(key)
		if !ok {
			return Entry{}, fmt.Errorf("term %q: unknown attribute %q", term, key)
		}

		switch v := val.(type) {
		case string:
			entry.Payload[name] = attr.Single(attr.CanonicalValue(name, v), 1.0, attr.SourceRule)
		case []any:
			var list []string
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return Entry{}, fmt.Errorf("term %q: %s list must contain only strings", term, key)
				}
				list = append(list, attr.CanonicalValue(name, s))
			}
			if len(list) == 0 {
				return Entry{}, fmt.Errorf("term %q: %s list is empty", term, key)
			}
			entry.Payload[name] = attr.List(list, 1.0, attr.SourceRule)
		case float64:
			entry.Payload[name] = attr.Numeric(v, 1.0, attr.SourceRule)
		default:
			return Entry{}, fmt.Errorf("term %q: unsupported value for %s", term, key)
		}
	}

	if len(entry.Payload) == 0 {
		return Entry{}, fmt.Errorf("term %q maps to no attributes", term)
	}
	return entry, nil
}

// Entries returns the full entry list in term order. Callers must not
// modify the returned slice.
func (b *Base) Entries() []Entry {
	return b.entries
}

// Lookup returns the entry for an exact (lowercased) term.
func (b *Base) Lookup(term string) (Entry, bool) {
	i, ok := b.byTerm[strings.ToLower(strings.TrimSpace(term))]
	if !ok {
		return Entry{}, false
	}
	return b.entries[i], true
}

// Terms returns every term in sorted order.
func (b *Base) Terms() []string {
	terms := make([]string, len(b.entries))
	for i, e := range b.entries {
		terms[i] = e.Term
	}
	return terms
}

func (b *Base) Len() int {
	return len(b.entries)
}
