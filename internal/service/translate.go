package service

import (
	"context"
	"strings"

	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/prompt"
	"github.com/automenta/mcr/internal/strategy"
)

// TranslateNLToRulesDirect implements spec.md §4.4
// translateNLToRulesDirect: the same strategy/LLM plumbing as
// assertNLToSession but session-free, with an empty context.
func (s *Service) TranslateNLToRulesDirect(ctx context.Context, nlText string, strategyIDOpt string) *TranslateResult {
	if err := ctx.Err(); err != nil {
		return failTranslate(mcrerrors.Wrap(mcrerrors.Cancelled, "request cancelled", err))
	}

	strat, err := s.pickDirectStrategy(nlText, "-Assert", strategyIDOpt)
	if err != nil {
		return failTranslate(err)
	}

	initial := map[string]any{
		"naturalLanguageText": nlText,
		"existingFacts":       "",
		"ontologyRules":       "",
		"lexiconSummary":      "(no predicates defined yet)",
		"llm_model_id":        s.llmModelID,
	}

	output, err := s.executor.Run(ctx, strat, initial)
	if err != nil {
		return failTranslate(err)
	}
	rules, ok := coerceStringSlice(output)
	if !ok {
		return failTranslate(mcrerrors.New(mcrerrors.StrategyInvalidOutput, "translate strategy did not produce a string array"))
	}
	if len(rules) == 0 {
		return failTranslate(mcrerrors.New(mcrerrors.NoRulesExtracted, "no rules extracted from input text"))
	}

	return &TranslateResult{Envelope: mcrerrors.Ok("translated"), Rules: rules}
}

// TranslateRulesToNLDirect implements spec.md §4.4
// translateRulesToNLDirect: a single LLM pass over RULES_TO_NL_DIRECT.
func (s *Service) TranslateRulesToNLDirect(ctx context.Context, rules []string, style string) *TranslateResult {
	if err := ctx.Err(); err != nil {
		return failTranslate(mcrerrors.Wrap(mcrerrors.Cancelled, "request cancelled", err))
	}
	if len(rules) == 0 {
		return failTranslate(mcrerrors.New(mcrerrors.EmptyRulesInput, "no rules supplied"))
	}
	if style == "" {
		style = "conversational"
	}

	rendered, err := s.prompts.RenderByName(prompt.RulesToNLDirect, map[string]string{
		"rules": strings.Join(rules, "\n"),
		"style": style,
	})
	if err != nil {
		return failTranslate(err)
	}
	resp, err := s.llm.Generate(ctx, rendered.System, rendered.User, nil)
	if err != nil {
		return failTranslate(err)
	}
	if resp.Text == nil || strings.TrimSpace(*resp.Text) == "" {
		return failTranslate(mcrerrors.New(mcrerrors.EmptyExplanationGen, "translation LLM call returned no text"))
	}

	return &TranslateResult{Envelope: mcrerrors.Ok("translated"), Text: *resp.Text}
}

// pickDirectStrategy resolves a strategy for the session-free path: an
// explicit ID wins outright, otherwise the usual Router/base fallback.
func (s *Service) pickDirectStrategy(nlText, suffix, strategyIDOpt string) (*strategy.Strategy, error) {
	if strategyIDOpt != "" {
		strat, ok := s.strategies.Get(strategyIDOpt)
		if !ok {
			return nil, mcrerrors.New(mcrerrors.StrategyNotFound, "no such strategy: "+strategyIDOpt)
		}
		return strat, nil
	}
	return s.resolveStrategy(nlText, suffix)
}
