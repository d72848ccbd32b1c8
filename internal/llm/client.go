package llm

import (
	"context"
)

// LLMClient generates a completion for a prompt. The inference fallback is
// the only caller; it bounds every call with a timeout context.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedderClient turns text into a vector for semantic similarity. The
// similarity resolver tolerates a nil or failing embedder.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
