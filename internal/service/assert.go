package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/automenta/mcr/internal/logging"
	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/prompt"
)

// AssertNLToSession implements spec.md §4.4 assertNLToSession.
func (s *Service) AssertNLToSession(ctx context.Context, sessionID, nlText string, opts AssertOptions) *AssertResult {
	if err := ctx.Err(); err != nil {
		return failAssert(mcrerrors.Wrap(mcrerrors.Cancelled, "request cancelled", err))
	}

	sess, ok := s.sessions.GetSession(sessionID)
	if !ok {
		return failAssert(mcrerrors.New(mcrerrors.SessionNotFound, "session not found: "+sessionID))
	}

	strat, err := s.resolveStrategy(nlText, "-Assert")
	if err != nil {
		return failAssert(err)
	}

	debugInfo := s.newDebugInfo()
	ontologyRules, dynamicContext := s.assembleContext(ctx, sess, nlText, debugInfo)
	if dynamicContext != "" {
		ontologyRules = ontologyRules + "\n% --- Semantic Context (Query-Specific) ---\n" + dynamicContext
	}
	initial := map[string]any{
		"naturalLanguageText": nlText,
		"existingFacts":       sess.KnowledgeBase(),
		"ontologyRules":       ontologyRules,
		"lexiconSummary":      sess.LexiconSummary(),
		"llm_model_id":        s.llmModelID,
	}

	output, err := s.executor.Run(ctx, strat, initial)
	if err != nil {
		return failAssert(err)
	}

	clauses, ok := coerceStringSlice(output)
	if !ok {
		return failAssert(mcrerrors.New(mcrerrors.StrategyInvalidOutput, "assert strategy did not produce a string array"))
	}
	if len(clauses) == 0 {
		return &AssertResult{
			Envelope:   mcrerrors.Envelope{Success: true, Error: mcrerrors.NoFactsExtracted, Message: "no facts extracted"},
			AddedFacts: []string{},
		}
	}

	validated, attempts, err := s.validateWithRefinement(ctx, sess.LexiconSummary(), clauses, opts.UseLoops)
	if err != nil {
		res := failAssert(err)
		res.RefinementAttempts = attempts
		return res
	}

	if _, err := s.sessions.AddFacts(sessionID, validated); err != nil {
		return failAssert(mcrerrors.Wrap(mcrerrors.SessionAddFactsFailed, "failed to add facts to session", err))
	}
	s.embedAndIndexFacts(ctx, sessionID, validated)

	if debugInfo != nil {
		debugInfo["validatedClauses"] = validated
	}
	logging.ServiceLog("asserted %d fact(s) into session %s (refinement attempts=%d)", len(validated), sessionID, attempts)
	return &AssertResult{
		Envelope:           mcrerrors.Ok(fmt.Sprintf("added %d fact(s)", len(validated))),
		AddedFacts:         validated,
		RefinementAttempts: attempts,
		DebugInfo:          debugInfo,
	}
}

// validateWithRefinement validates each candidate clause with the
// reasoner. When useLoops is set, a failing clause is sent through the
// REFINE_INVALID_CLAUSE prompt and re-validated, up to the configured
// attempt bound (spec.md §4.4 "useLoops" refinement loop).
func (s *Service) validateWithRefinement(ctx context.Context, lexiconSummary string, clauses []string, useLoops bool) ([]string, int, error) {
	maxAttempts := s.currentMaxRefinement()
	attempts := 0
	current := append([]string(nil), clauses...)

	for {
		invalidIdx := -1
		var invalidErr string
		for i, c := range current {
			valid, errMsg := s.reasoner.Validate(ctx, c)
			if !valid {
				invalidIdx, invalidErr = i, errMsg
				break
			}
		}
		if invalidIdx == -1 {
			return current, attempts, nil
		}
		if !useLoops || attempts >= maxAttempts {
			return nil, attempts, mcrerrors.New(mcrerrors.InvalidGeneratedProlog, "generated clause failed validation").
				WithDetails(fmt.Sprintf("clause %q: %s", current[invalidIdx], invalidErr))
		}

		refined, err := s.refineClause(ctx, current[invalidIdx], invalidErr, lexiconSummary)
		if err != nil {
			return nil, attempts, err
		}
		current[invalidIdx] = refined
		attempts++
	}
}

func (s *Service) refineClause(ctx context.Context, clause, reasonerErr, lexiconSummary string) (string, error) {
	rendered, err := s.prompts.RenderByName(prompt.RefineInvalidClause, map[string]string{
		"clause":         clause,
		"error":          reasonerErr,
		"lexiconSummary": lexiconSummary,
	})
	if err != nil {
		return "", err
	}
	resp, err := s.llm.Generate(ctx, rendered.System, rendered.User, nil)
	if err != nil {
		return "", err
	}
	if resp.Text == nil {
		return "", mcrerrors.New(mcrerrors.LLMEmptyResponse, "refinement LLM call returned no text")
	}
	return normalizeClauseText(*resp.Text), nil
}

// normalizeClauseText mirrors the Executor's Extract_Prolog_Query node:
// trim whitespace and ensure the clause ends with a period.
func normalizeClauseText(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && !strings.HasSuffix(trimmed, ".") {
		trimmed += "."
	}
	return trimmed
}

// coerceStringSlice accepts either a []string (the Executor's native
// form) or a []any of strings (after a JSON round-trip), returning false
// for anything else.
func coerceStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
