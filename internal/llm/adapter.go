// Package llm is the LLM Adapter external interface (spec.md §6): MCR's
// core depends only on Adapter.Generate; the concrete HTTP-backed
// implementations live alongside it the way the teacher keeps one client
// per provider behind a shared interface.
package llm

import "context"

// Response is the generate() contract. A nil Text is a valid response
// meaning "empty", distinguishable from a returned error. Cost is opaque
// and passed through unmodified (spec.md §9 open question (b)) — its
// schema varies between adapters.
type Response struct {
	Text *string
	Cost map[string]any
}

// Adapter is implemented by every concrete LLM provider client.
type Adapter interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, options map[string]any) (*Response, error)
}
