package service

import (
	"context"
	"strings"

	"github.com/automenta/mcr/internal/logging"
	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/prompt"
	"github.com/automenta/mcr/internal/reasoner"
)

// QuerySessionWithNL implements spec.md §4.4 querySessionWithNL.
func (s *Service) QuerySessionWithNL(ctx context.Context, sessionID, nlQuestion string, opts QueryOptions) *QueryResult {
	if err := ctx.Err(); err != nil {
		return failQuery(mcrerrors.Wrap(mcrerrors.Cancelled, "request cancelled", err))
	}

	sess, ok := s.sessions.GetSession(sessionID)
	if !ok {
		return failQuery(mcrerrors.New(mcrerrors.SessionNotFound, "session not found: "+sessionID))
	}

	strat, err := s.resolveStrategy(nlQuestion, "-Query")
	if err != nil {
		return failQuery(err)
	}

	debugInfo := s.newDebugInfo()
	ontologyRules, semanticContext := s.assembleContext(ctx, sess, nlQuestion, debugInfo)

	initial := map[string]any{
		"naturalLanguageQuestion": nlQuestion,
		"existingFacts":           sess.KnowledgeBase(),
		"ontologyRules":           ontologyRules,
		"lexiconSummary":          sess.LexiconSummary(),
		"llm_model_id":            s.llmModelID,
	}

	output, err := s.executor.Run(ctx, strat, initial)
	if err != nil {
		return failQuery(err)
	}
	query, ok := output.(string)
	if !ok || strings.TrimSpace(query) == "" || !strings.HasSuffix(strings.TrimSpace(query), ".") {
		return failQuery(mcrerrors.New(mcrerrors.StrategyInvalidOutput, "query strategy did not produce a Prolog query ending with '.'"))
	}

	dynamicOntology := opts.DynamicOntology
	if semanticContext != "" {
		if dynamicOntology != "" {
			dynamicOntology += "\n% --- Semantic Context (Query-Specific) ---\n" + semanticContext
		} else {
			dynamicOntology = semanticContext
		}
	}
	kb := assembleExecutionKB(sess.KnowledgeBase(), ontologyRules, dynamicOntology)
	outcome, err := s.reasoner.ConsultAndQuery(ctx, kb, query, reasoner.QueryOptions{Trace: opts.Trace})
	if err != nil {
		return failQuery(err)
	}

	style := opts.Style
	if style == "" {
		style = "conversational"
	}
	rendered, err := s.prompts.RenderByName(prompt.LogicToNLAnswer, map[string]string{
		"naturalLanguageQuestion": nlQuestion,
		"prologResultsJSON":       marshalJSON(outcome.Results),
		"style":                   style,
	})
	if err != nil {
		return failQuery(err)
	}
	answerResp, err := s.llm.Generate(ctx, rendered.System, rendered.User, nil)
	if err != nil {
		return failQuery(err)
	}
	if answerResp.Text == nil {
		return failQuery(mcrerrors.New(mcrerrors.LLMEmptyResponse, "answer-rendering LLM call returned no text"))
	}

	result := &QueryResult{
		Envelope: mcrerrors.Ok("query answered"),
		Answer:   *answerResp.Text,
	}

	if opts.Trace && outcome.Trace != nil {
		formatted := reasoner.FormatProofTree(outcome.Trace, &reasoner.SessionContext{ID: sess.ID, Facts: sess.Facts})
		result.ProofTree = formatted
		if debugInfo != nil {
			debugInfo["proofTrace"] = formatted
		}

		traceRendered, err := s.prompts.RenderByName(prompt.LogicTraceToNL, map[string]string{
			"naturalLanguageQuestion": nlQuestion,
			"proofTreeJSON":           marshalJSON(formatted),
		})
		if err != nil {
			logging.ServiceWarn("trace explanation prompt failed, omitting explanation: %v", err)
		} else if traceResp, err := s.llm.Generate(ctx, traceRendered.System, traceRendered.User, nil); err != nil {
			logging.ServiceWarn("trace explanation LLM call failed, omitting explanation: %v", err)
		} else if traceResp.Text != nil {
			result.Explanation = *traceResp.Text
		}
	}

	if debugInfo != nil {
		debugInfo["prologQuery"] = query
		debugInfo["resultCount"] = len(outcome.Results)
		if s.currentDebugLevel() == DebugVerbose {
			debugInfo["knowledgeBase"] = kb
			debugInfo["results"] = outcome.Results
		}
		result.DebugInfo = debugInfo
	}

	return result
}

// assembleExecutionKB implements spec.md §4.4's documented concatenation
// order for querySessionWithNL's execution KB.
func assembleExecutionKB(sessionFacts, ontologyRules, dynamicOntology string) string {
	var sb strings.Builder
	sb.WriteString(sessionFacts)
	sb.WriteString("\n% --- Global Ontologies ---\n")
	sb.WriteString(ontologyRules)
	if dynamicOntology != "" {
		sb.WriteString("\n% --- Dynamic RAG Ontology (Query-Specific) ---\n")
		sb.WriteString(dynamicOntology)
	}
	return sb.String()
}
