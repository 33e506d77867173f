package service

import (
	"context"
	"strings"

	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/prompt"
)

// ExplainQuery implements spec.md §4.4 explainQuery: like query, but stops
// after obtaining the Prolog query and explains it instead of running it.
func (s *Service) ExplainQuery(ctx context.Context, sessionID, nlQuestion string) *ExplainResult {
	if err := ctx.Err(); err != nil {
		return failExplain(mcrerrors.Wrap(mcrerrors.Cancelled, "request cancelled", err))
	}

	sess, ok := s.sessions.GetSession(sessionID)
	if !ok {
		return failExplain(mcrerrors.New(mcrerrors.SessionNotFound, "session not found: "+sessionID))
	}

	strat, err := s.resolveStrategy(nlQuestion, "-Query")
	if err != nil {
		return failExplain(err)
	}

	debugInfo := s.newDebugInfo()
	ontologyRules := s.ontologyRules(ctx, debugInfo)

	initial := map[string]any{
		"naturalLanguageQuestion": nlQuestion,
		"existingFacts":           sess.KnowledgeBase(),
		"ontologyRules":           ontologyRules,
		"lexiconSummary":          sess.LexiconSummary(),
		"llm_model_id":            s.llmModelID,
	}

	output, err := s.executor.Run(ctx, strat, initial)
	if err != nil {
		return failExplain(err)
	}
	query, ok := output.(string)
	if !ok || strings.TrimSpace(query) == "" || !strings.HasSuffix(strings.TrimSpace(query), ".") {
		return failExplain(mcrerrors.New(mcrerrors.StrategyInvalidOutput, "query strategy did not produce a Prolog query ending with '.'"))
	}

	rendered, err := s.prompts.RenderByName(prompt.ExplainPrologQuery, map[string]string{
		"naturalLanguageQuestion": nlQuestion,
		"prologQuery":             query,
		"sessionFacts":            sess.KnowledgeBase(),
		"ontologyRules":           ontologyRules,
	})
	if err != nil {
		return failExplain(err)
	}
	resp, err := s.llm.Generate(ctx, rendered.System, rendered.User, nil)
	if err != nil {
		return failExplain(err)
	}
	if resp.Text == nil {
		return failExplain(mcrerrors.New(mcrerrors.LLMEmptyResponse, "explanation LLM call returned no text"))
	}

	return &ExplainResult{
		Envelope:    mcrerrors.Ok("query explained"),
		PrologQuery: query,
		Explanation: *resp.Text,
		DebugInfo:   debugInfo,
	}
}
