package service

import (
	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/reasoner"
)

// DebugLevel controls how much diagnostic material a result's DebugInfo
// carries (spec.md §4.4).
type DebugLevel string

const (
	DebugNone    DebugLevel = "none"
	DebugBasic   DebugLevel = "basic"
	DebugVerbose DebugLevel = "verbose"
)

// AssertOptions configures assertNLToSession.
type AssertOptions struct {
	UseLoops bool
}

// QueryOptions configures querySessionWithNL.
type QueryOptions struct {
	DynamicOntology string
	Style           string
	Trace           bool
	UseLoops        bool
}

// AssertResult is assertNLToSession's return value.
type AssertResult struct {
	mcrerrors.Envelope
	AddedFacts         []string       `json:"addedFacts"`
	RefinementAttempts int            `json:"refinementAttempts"`
	DebugInfo          map[string]any `json:"debugInfo,omitempty"`
}

// QueryResult is querySessionWithNL's return value.
type QueryResult struct {
	mcrerrors.Envelope
	Answer      string             `json:"answer,omitempty"`
	Explanation string             `json:"explanation,omitempty"`
	ProofTree   *reasoner.ProofTree `json:"proofTree,omitempty"`
	DebugInfo   map[string]any     `json:"debugInfo,omitempty"`
}

// ExplainResult is explainQuery's return value.
type ExplainResult struct {
	mcrerrors.Envelope
	PrologQuery string         `json:"prologQuery,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
	DebugInfo   map[string]any `json:"debugInfo,omitempty"`
}

// TranslateResult is the shared return shape for the session-free
// translate* operations.
type TranslateResult struct {
	mcrerrors.Envelope
	Rules     []string       `json:"rules,omitempty"`
	Text      string         `json:"text,omitempty"`
	DebugInfo map[string]any `json:"debugInfo,omitempty"`
}

// PromptFormatResult is debugFormatPrompt's return value.
type PromptFormatResult struct {
	mcrerrors.Envelope
	RawSystem      string `json:"rawSystem,omitempty"`
	RawUser        string `json:"rawUser,omitempty"`
	RenderedSystem string `json:"renderedSystem,omitempty"`
	RenderedUser   string `json:"renderedUser,omitempty"`
}

func failAssert(err error) *AssertResult {
	return &AssertResult{Envelope: mcrerrors.Fail(err), AddedFacts: []string{}}
}

func failQuery(err error) *QueryResult {
	return &QueryResult{Envelope: mcrerrors.Fail(err)}
}

func failExplain(err error) *ExplainResult {
	return &ExplainResult{Envelope: mcrerrors.Fail(err)}
}

func failTranslate(err error) *TranslateResult {
	return &TranslateResult{Envelope: mcrerrors.Fail(err)}
}
