package core

import (
	"context"
	"fmt"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/catalog"
	"github.com/hemline/stylist/internal/config"
	"github.com/hemline/stylist/internal/extract"
	"github.com/hemline/stylist/internal/infer"
	"github.com/hemline/stylist/internal/knowledge"
	"github.com/hemline/stylist/internal/llm"
	"github.com/hemline/stylist/internal/resolve"
	"github.com/hemline/stylist/internal/respond"
	"github.com/hemline/stylist/internal/session"
)

// Stylist wires the attribute pipeline together and drives one
// conversation turn end to end: extract, resolve, optionally infer, merge
// into the session, then ask or filter. The knowledge base and catalog are
// read-only after construction and shared by all sessions.
type Stylist struct {
	Config    *config.Config
	Knowledge *knowledge.Base
	Catalog   []catalog.Product
	Resolver  *resolve.Resolver
	Inference *infer.Engine
	Sessions  *session.Registry
	Renderer  *respond.Renderer

	priority []attr.Name
	relax    []attr.Name
}

func NewStylist(ctx context.Context, cfg *config.Config, kb *knowledge.Base, products []catalog.Product, llmClient llm.LLMClient, embedder llm.EmbedderClient) *Stylist {
	return &Stylist{
		Config:    cfg,
		Knowledge: kb,
		Catalog:   products,
		Resolver:  resolve.NewResolver(ctx, kb, embedder, cfg.Pipeline.SimilarityThreshold),
		Inference: infer.NewEngine(llmClient, cfg.Inference, cfg.InferenceTimeout(), cfg.Pipeline.InferenceConfidence),
		Sessions:  session.NewRegistry(),
		Renderer:  respond.NewRenderer(),
		priority:  parseNames(cfg.Pipeline.PriorityOrder),
		relax:     parseNames(cfg.Pipeline.RelaxOrder),
	}
}

// TurnResult is everything the response renderer and the HTTP layer need
// about one processed turn.
type TurnResult struct {
	SessionID  string               `json:"session_id"`
	State      session.State        `json:"state"`
	Reply      string               `json:"reply"`
	Attributes attr.Set             `json:"attributes"`
	Missing    []attr.Name          `json:"missing,omitempty"`
	Match      *catalog.MatchResult `json:"match,omitempty"`
	Matches    []resolve.Match      `json:"knowledge_matches,omitempty"`
}

// ProcessTurn handles one user message for one session. The session lock
// is held for the whole turn, so a session's attribute set is never
// mutated concurrently; independent sessions proceed in parallel.
func (st *Stylist) ProcessTurn(ctx context.Context, sessionID, text string) (TurnResult, error) {
	if text == "" {
		return TurnResult{}, fmt.Errorf("empty message")
	}

	sess := st.Sessions.GetOrCreate(sessionID)
	sess.Lock()
	defer sess.Unlock()

	extracted := extract.Analyze(text)
	outcome := st.Resolver.Resolve(ctx, extracted)

	// Fallback decision: one named check against the combined state, so
	// the model is asked only about genuine gaps.
	combined := sess.Attributes()
	combined.Merge(outcome.Attributes.Clone())
	required := attr.RequiredFor(combined.CategoryName())

	delta := outcome.Attributes
	if gaps := st.Resolver.Gaps(resolve.Outcome{Attributes: combined}, required); len(gaps) > 0 {
		inferred := st.Inference.Infer(ctx, text, combined, gaps)
		delta.Merge(inferred)
	}

	sess.Merge(delta, st.priority)

	result := TurnResult{
		SessionID: sess.ID,
		Matches:   outcome.Matches,
	}

	if next, ok := sess.NextQuestion(); ok {
		if len(delta) == 0 {
			result.Reply = st.Renderer.Clarification()
		} else {
			result.Reply = st.Renderer.Question(next)
		}
	} else {
		sess.BeginFiltering()
		match := catalog.Filter(sess.Attributes(), st.Catalog, catalog.Options{
			MaxResults: st.Config.Pipeline.MaxResults,
			RelaxOrder: st.relax,
		})
		sess.FinishFiltering(match)
		result.Match = &match
		result.Reply = st.Renderer.Recommendation(sess.Attributes(), match)
	}

	sess.Record(text, result.Reply)
	result.State = sess.State()
	result.Attributes = sess.Attributes()
	result.Missing = sess.Pending()
	return result, nil
}

// ResetSession clears a session's attributes while keeping its history.
func (st *Stylist) ResetSession(sessionID string) bool {
	sess := st.Sessions.Get(sessionID)
	if sess == nil {
		return false
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Reset()
	return true
}

// Status reports component readiness for the status endpoint.
func (st *Stylist) Status() map[string]string {
	status := map[string]string{
		"knowledge_base": fmt.Sprintf("loaded %d vibe mappings", st.Knowledge.Len()),
		"catalog":        fmt.Sprintf("loaded %d products", len(st.Catalog)),
		"sessions":       fmt.Sprintf("%d active", st.Sessions.Len()),
	}
	if st.Inference.LLM != nil {
		status["inference"] = "ready"
	} else {
		status["inference"] = "not configured"
	}
	return status
}

func parseNames(raw []string) []attr.Name {
	var names []attr.Name
	for _, r := range raw {
		if n, ok := attr.ParseName(r); ok {
			names = append(names, n)
		}
	}
	return names
}
