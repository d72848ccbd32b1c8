package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/config"
	"github.com/hemline/stylist/internal/core/common"
	"github.com/hemline/stylist/internal/llm"
)

// Engine fills attribute gaps with an external language model, constrained
// to the per-category vocabulary so it cannot invent values. Any failure
// (timeout, transport, auth, unparseable output) degrades to an empty
// delta and the pipeline continues on rule-based results alone.
type Engine struct {
	LLM        llm.LLMClient
	Prompts    config.InferencePrompts
	Timeout    time.Duration
	Confidence float64
}

func NewEngine(llmClient llm.LLMClient, prompts config.InferencePrompts, timeout time.Duration, confidence float64) *Engine {
	return &Engine{
		LLM:        llmClient,
		Prompts:    prompts,
		Timeout:    timeout,
		Confidence: confidence,
	}
}

// Infer asks the model to fill the missing attributes. Known attributes are
// injected as fixed context so the model is asked only for gaps. The
// returned set contains only vocabulary-validated values with provenance
// inference; it is empty (never nil-deref, never an error) on any failure.
func (e *Engine) Infer(ctx context.Context, text string, known attr.Set, missing []attr.Name) attr.Set {
	if e.LLM == nil {
		return attr.Set{}
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	prompt := e.buildPrompt(text, known, missing)
	response, err := e.LLM.Generate(ctx, prompt)
	if err != nil {
		log.Printf("inference fallback failed: %v; continuing with rule-based attributes", err)
		return attr.Set{}
	}

	raw, err := common.ParseJSON[map[string]any](response)
	if err != nil {
		log.Printf("inference response unusable: %v; continuing with rule-based attributes", err)
		return attr.Set{}
	}

	return e.validate(raw, known)
}

func (e *Engine) buildPrompt(text string, known attr.Set, missing []attr.Name) string {
	system := fmt.Sprintf(e.Prompts.System, vocabularyBlock())

	knownJSON, _ := json.Marshal(displayable(known))
	missingNames := make([]string, len(missing))
	for i, m := range missing {
		missingNames[i] = string(m)
	}
	user := fmt.Sprintf(e.Prompts.User, text, string(knownJSON), strings.Join(missingNames, ", "))

	return system + "\n\n" + user
}

// vocabularyBlock renders the category schema and valid values the model
// must choose from.
func vocabularyBlock() string {
	var b strings.Builder
	b.WriteString("CATEGORIES AND THEIR VALID ATTRIBUTES:\n")
	for _, cat := range attr.Categories() {
		var names []string
		for _, n := range attr.KnownNames {
			if n == attr.Category || n == attr.Size || n == attr.Budget {
				continue
			}
			if attr.Applicable(cat, n) {
				names = append(names, string(n))
			}
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", cat, strings.Join(names, ", ")))
	}

	b.WriteString("\nVALID VALUES:\n")
	for _, n := range []attr.Name{attr.Category, attr.Fit, attr.Fabric, attr.SleeveLength,
		attr.Neckline, attr.Length, attr.PantType, attr.Occasion, attr.Size} {
		b.WriteString(fmt.Sprintf("%s: %s\n", n, strings.Join(attr.Vocabulary(n), ", ")))
	}
	b.WriteString("color_or_print: free text, e.g. Pastel yellow, Deep blue, Floral print, Sapphire blue\n")
	return b.String()
}

// validate accepts only known attribute names whose values are inside the
// vocabulary and applicable to the (known or newly inferred) category.
// Everything else is dropped and logged, never surfaced as an error.
func (e *Engine) validate(raw map[string]any, known attr.Set) attr.Set {
	out := attr.Set{}

	category := known.CategoryName()
	if category == "" {
		if c, ok := raw["category"].(string); ok && attr.ValidValue(attr.Category, c) {
			category = strings.ToLower(strings.TrimSpace(c))
		}
	}

	for key, val := range raw {
		name, ok := attr.ParseName(key)
		if !ok {
			log.Printf("inference returned unknown attribute %q; dropped", key)
			continue
		}
		if name == attr.Budget {
			// Budget comes only from the user.
			continue
		}
		if name != attr.Category && name != attr.Size && !attr.Applicable(category, name) {
			log.Printf("inference attribute %q not applicable to category %q; dropped", key, category)
			continue
		}

		switch v := val.(type) {
		case string:
			if !attr.ValidValue(name, v) {
				log.Printf("inference value %q invalid for %q; dropped", v, key)
				continue
			}
			out[name] = attr.Single(attr.CanonicalValue(name, v), e.Confidence, attr.SourceInference)
		case []any:
			var list []string
			for _, item := range v {
				s, ok := item.(string)
				if !ok || !attr.ValidValue(name, s) {
					log.Printf("inference list value %v invalid for %q; dropped", item, key)
					continue
				}
				list = append(list, attr.CanonicalValue(name, s))
			}
			if len(list) > 0 {
				out[name] = attr.List(list, e.Confidence, attr.SourceInference)
			}
		default:
			log.Printf("inference value for %q has unusable type; dropped", key)
		}
	}

	// Inference only fills gaps: names the caller already resolved are
	// removed so the merge can never touch them.
	for name := range out {
		if known.Has(name) {
			delete(out, name)
		}
	}
	return out
}

func displayable(set attr.Set) map[string]string {
	out := make(map[string]string, len(set))
	for name, v := range set {
		out[string(name)] = v.String()
	}
	return out
}
