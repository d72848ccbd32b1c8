package infer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/config"
	"github.com/hemline/stylist/internal/llm"
)

type mockLLM struct {
	Response string
	Err      error
	Prompt   string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompt = prompt
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// blockingLLM never answers; it exists to exercise the timeout path.
type blockingLLM struct{}

func (blockingLLM) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

var testPrompts = config.InferencePrompts{
	System: "You infer fashion attributes.\n%s",
	User:   "Query: %s\nKnown: %s\nMissing: %s",
}

func newTestEngine(llmClient llm.LLMClient) *Engine {
	return NewEngine(llmClient, testPrompts, time.Second, 0.6)
}

func TestInfer_FillsMissingAttributes(t *testing.T) {
	llmClient := &mockLLM{Response: `{"category": "dress", "occasion": "Evening"}`}
	e := newTestEngine(llmClient)

	out := e.Infer(context.Background(), "something elegant for a dinner date",
		attr.Set{}, []attr.Name{attr.Category, attr.Occasion})

	assert.Equal(t, "dress", out[attr.Category].One)
	assert.Equal(t, "Evening", out[attr.Occasion].One)
	assert.Equal(t, attr.SourceInference, out[attr.Category].Source)
	assert.Equal(t, 0.6, out[attr.Category].Confidence)

	assert.Contains(t, llmClient.Prompt, "dinner date")
	assert.Contains(t, llmClient.Prompt, "category, occasion")
}

func TestInfer_MarkdownFencedResponse(t *testing.T) {
	e := newTestEngine(&mockLLM{Response: "Here you go:\n```json\n{\"fit\": \"Flowy\"}\n```"})

	out := e.Infer(context.Background(), "breezy",
		attr.Set{attr.Category: attr.Single("dress", 1.0, attr.SourceRule)},
		[]attr.Name{attr.Fit})
	assert.Equal(t, "Flowy", out[attr.Fit].One)
}

func TestInfer_NilClientIsEmpty(t *testing.T) {
	e := NewEngine(nil, testPrompts, time.Second, 0.6)
	out := e.Infer(context.Background(), "anything", attr.Set{}, []attr.Name{attr.Category})
	assert.Empty(t, out)
}

func TestInfer_TransportErrorIsEmpty(t *testing.T) {
	e := newTestEngine(&mockLLM{Err: errors.New("connection refused")})
	out := e.Infer(context.Background(), "anything", attr.Set{}, []attr.Name{attr.Category})
	assert.Empty(t, out)
}

func TestInfer_TimeoutIsEmpty(t *testing.T) {
	e := NewEngine(blockingLLM{}, testPrompts, 20*time.Millisecond, 0.6)

	start := time.Now()
	out := e.Infer(context.Background(), "anything", attr.Set{}, []attr.Name{attr.Category})
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), time.Second)
}

func TestInfer_UnparseableResponseIsEmpty(t *testing.T) {
	e := newTestEngine(&mockLLM{Response: "I think you'd love a flowy dress!"})
	out := e.Infer(context.Background(), "anything", attr.Set{}, []attr.Name{attr.Fit})
	assert.Empty(t, out)
}

func TestInfer_RejectsOutOfVocabulary(t *testing.T) {
	e := newTestEngine(&mockLLM{Response: `{"fit": "baggy", "fabric": "Silk"}`})

	out := e.Infer(context.Background(), "something slouchy and silky",
		attr.Set{attr.Category: attr.Single("dress", 1.0, attr.SourceRule)},
		[]attr.Name{attr.Fit, attr.Fabric})

	assert.False(t, out.Has(attr.Fit))
	assert.Equal(t, "Silk", out[attr.Fabric].One)
}

func TestInfer_RejectsInapplicableAndUnknown(t *testing.T) {
	// pant_type does not apply to dresses and "mood" is not an attribute.
	e := newTestEngine(&mockLLM{Response: `{"pant_type": "Flared", "mood": "happy", "neckline": "V neck"}`})

	out := e.Infer(context.Background(), "anything",
		attr.Set{attr.Category: attr.Single("dress", 1.0, attr.SourceRule)},
		[]attr.Name{attr.Neckline})

	assert.False(t, out.Has(attr.PantType))
	assert.Equal(t, "V neck", out[attr.Neckline].One)
	assert.Len(t, out, 1)
}

func TestInfer_NeverTouchesBudget(t *testing.T) {
	e := newTestEngine(&mockLLM{Response: `{"budget": 50, "category": "top"}`})
	out := e.Infer(context.Background(), "anything", attr.Set{}, []attr.Name{attr.Category, attr.Budget})
	assert.False(t, out.Has(attr.Budget))
	assert.Equal(t, "top", out[attr.Category].One)
}

func TestInfer_OnlyFillsGaps(t *testing.T) {
	// The model answers for an attribute the pipeline already resolved; the
	// known value must win untouched.
	e := newTestEngine(&mockLLM{Response: `{"category": "top", "fit": "Relaxed"}`})

	known := attr.Set{attr.Category: attr.Single("dress", 1.0, attr.SourceRule)}
	out := e.Infer(context.Background(), "anything", known, []attr.Name{attr.Fit})

	assert.False(t, out.Has(attr.Category))
	assert.Equal(t, "Relaxed", out[attr.Fit].One)
}

func TestInfer_ListValues(t *testing.T) {
	e := newTestEngine(&mockLLM{Response: `{"fabric": ["Silk", "Satin", "burlap"]}`})

	out := e.Infer(context.Background(), "anything",
		attr.Set{attr.Category: attr.Single("dress", 1.0, attr.SourceRule)},
		[]attr.Name{attr.Fabric})

	require.True(t, out.Has(attr.Fabric))
	assert.Equal(t, []string{"Silk", "Satin"}, out[attr.Fabric].Many)
}

func TestInfer_InfersCategoryThenValidatesAgainstIt(t *testing.T) {
	// With no known category, the model's own category answer scopes the
	// applicability check for the rest of the payload.
	e := newTestEngine(&mockLLM{Response: `{"category": "pants", "pant_type": "Wide-legged"}`})

	out := e.Infer(context.Background(), "anything", attr.Set{},
		[]attr.Name{attr.Category, attr.PantType})

	assert.Equal(t, "pants", out[attr.Category].One)
	assert.Equal(t, "Wide-legged", out[attr.PantType].One)
}
