//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/catalog"
	"github.com/hemline/stylist/internal/config"
	"github.com/hemline/stylist/internal/core"
	"github.com/hemline/stylist/internal/knowledge"
	"github.com/hemline/stylist/internal/llm"
	"github.com/hemline/stylist/internal/session"
)

// newLiveStylist builds the full pipeline against a real provider. The shared
// data and config files from the repo root are used as-is.
func newLiveStylist(t *testing.T) *core.Stylist {
	_ = godotenv.Load("../../.env")

	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		t.Skip("Skipping integration test: LLM_PROVIDER not set")
	}

	cfg, err := config.Load("../../config/config.toml")
	require.NoError(t, err)
	cfg.ApplyEnv()
	cfg.LLM.Provider = provider

	kb, err := knowledge.Load("../../data/vibes")
	require.NoError(t, err)

	products, err := catalog.LoadCSV("../../data/catalog.csv")
	require.NoError(t, err)

	ctx := context.Background()
	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	require.NoError(t, err)

	return core.NewStylist(ctx, cfg, kb, products, llmClient, embedder)
}

func TestLiveConversation(t *testing.T) {
	st := newLiveStylist(t)
	ctx := context.Background()

	r1, err := st.ProcessTurn(ctx, "live-1", "Something casual for a summer brunch")
	require.NoError(t, err)
	t.Logf("turn 1 reply: %s", r1.Reply)
	assert.Equal(t, "casual", r1.Attributes[attr.Occasion].One)
	assert.NotEmpty(t, r1.Missing)

	r2, err := st.ProcessTurn(ctx, "live-1", "a flowy pastel dress, size M, under $100")
	require.NoError(t, err)
	t.Logf("turn 2 reply: %s", r2.Reply)
	assert.Equal(t, session.StateReady, r2.State)
	require.NotNil(t, r2.Match)
	assert.False(t, r2.Match.Empty())
	for _, rp := range r2.Match.Products {
		assert.Equal(t, "dress", rp.Product.Category)
		assert.LessOrEqual(t, rp.Product.Price, 100.0)
	}
}

func TestLiveSemanticResolution(t *testing.T) {
	st := newLiveStylist(t)

	// "form-fitting" is not in the knowledge base verbatim; either the
	// embedding signal or the inference fallback has to connect it.
	result, err := st.ProcessTurn(context.Background(), "live-2",
		"a form-fitting black dress, size S, under $150")
	require.NoError(t, err)
	t.Logf("reply: %s", result.Reply)

	v, ok := result.Attributes.Get(attr.Fit)
	require.True(t, ok)
	assert.NotEqual(t, attr.Provenance(""), v.Source)
}
