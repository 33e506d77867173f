package service

import (
	"context"

	"github.com/automenta/mcr/internal/llm"
	"github.com/automenta/mcr/internal/strategy"
)

// llmPort adapts the external llm.Adapter contract onto the Executor's
// narrower strategy.LLMPort, the two having been specified independently
// (spec.md §6 vs §4.2) and so carrying nominally distinct response types
// over an identical wire shape.
type llmPort struct {
	inner llm.Adapter
}

func newLLMPort(inner llm.Adapter) llmPort {
	return llmPort{inner: inner}
}

func (p llmPort) Generate(ctx context.Context, systemPrompt, userPrompt string, options map[string]any) (*strategy.LLMResponse, error) {
	resp, err := p.inner.Generate(ctx, systemPrompt, userPrompt, options)
	if err != nil {
		return nil, err
	}
	return &strategy.LLMResponse{Text: resp.Text, Cost: resp.Cost}, nil
}
