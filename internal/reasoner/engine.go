// Package reasoner is the Reasoner Adapter: the only component with native
// Prolog-engine knowledge. Every other component in MCR operates over
// strings and structured results; this package isolates the choice of
// underlying engine (spec.md §4.1).
//
// The engine is Trealla Prolog running under WebAssembly
// (github.com/trealla-prolog/go), chosen over a Datalog engine because the
// adapter contract requires genuine Prolog semantics: unification,
// backtracking, and `:-` rule clauses.
package reasoner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	trealla "github.com/trealla-prolog/go"

	"github.com/automenta/mcr/internal/config"
	"github.com/automenta/mcr/internal/logging"
	"github.com/automenta/mcr/internal/mcrerrors"
)

// Config holds Reasoner Adapter configuration.
type Config struct {
	QueryTimeout time.Duration
	DefaultLimit int
	LibraryDir   string
}

// FromSettings adapts the process-level config into a reasoner Config.
func FromSettings(c config.ReasonerConfig) Config {
	timeout, err := time.ParseDuration(c.QueryTimeout)
	if err != nil {
		timeout = 30 * time.Second
	}
	limit := c.DefaultLimit
	if limit <= 0 {
		limit = 10
	}
	return Config{QueryTimeout: timeout, DefaultLimit: limit, LibraryDir: c.LibraryDir}
}

// Adapter wraps a warm Trealla interpreter and hands out a fresh clone per
// consult-and-query call, so no reasoner state leaks between requests
// (spec.md §5) while avoiding the cost of reinstantiating the WASM module
// on every call.
type Adapter struct {
	cfg  Config
	mu   sync.Mutex
	base trealla.Prolog
}

// NewAdapter boots the base Trealla interpreter.
func NewAdapter(cfg Config) (*Adapter, error) {
	timer := logging.StartTimer(logging.CategoryReasoner, "NewAdapter")
	defer timer.Stop()

	var opts []trealla.Option
	if cfg.LibraryDir != "" {
		opts = append(opts, trealla.WithLibraryPath(cfg.LibraryDir))
	}

	base, err := trealla.New(opts...)
	if err != nil {
		logging.Get(logging.CategoryReasoner).Error("failed to boot trealla interpreter: %v", err)
		return nil, fmt.Errorf("reasoner: failed to boot interpreter: %w", err)
	}

	logging.Reasoner("trealla interpreter ready, default_limit=%d, query_timeout=%v", cfg.DefaultLimit, cfg.QueryTimeout)
	return &Adapter{cfg: cfg, base: base}, nil
}

// Close releases the base interpreter.
func (a *Adapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.base.Close()
}

// fresh hands out a clone of the warm base interpreter for a single call.
func (a *Adapter) fresh() (trealla.Prolog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	pl, err := a.base.Clone()
	if err != nil {
		return nil, fmt.Errorf("reasoner: failed to clone interpreter: %w", err)
	}
	return pl, nil
}

// Result is a single Prolog answer: the sentinel True for a goal that
// succeeded with no variable bindings, or a set of uppercase-variable to
// bound-term-text bindings. Anonymous variables (leading `_`) are never
// present here — they are suppressed at binding time.
type Result struct {
	True     bool
	Bindings map[string]string
}

// QueryOptions configures a consult-and-query call.
type QueryOptions struct {
	Limit int
	Trace bool
}

// QueryOutcome is the result of ConsultAndQuery.
type QueryOutcome struct {
	Results []Result
	Trace   *ProofTree
}

// ConsultAndQuery consults knowledgeBase, then enumerates up to
// opts.Limit solutions of query. Exceeding the per-operation step budget
// (context deadline) returns the partial list gathered so far, not an
// error.
func (a *Adapter) ConsultAndQuery(ctx context.Context, knowledgeBase, query string, opts QueryOptions) (*QueryOutcome, error) {
	timer := logging.StartTimer(logging.CategoryReasoner, "ConsultAndQuery")
	defer timer.Stop()

	limit := opts.Limit
	if limit <= 0 {
		limit = a.cfg.DefaultLimit
	}

	pl, err := a.fresh()
	if err != nil {
		return nil, mcrerrors.Wrap(mcrerrors.InternalError, "reasoner engine unavailable", err)
	}
	defer pl.Close()

	qctx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()

	if err := pl.ConsultText(qctx, "user", knowledgeBase); err != nil {
		logging.ReasonerDebug("consult rejected: %v", err)
		return nil, mcrerrors.Wrap(mcrerrors.PrologKBSyntax, "knowledge base failed to consult", err)
	}

	var qopts []trealla.QueryOption
	if opts.Trace {
		qopts = append(qopts, trealla.WithTrace())
	}

	q := pl.Query(qctx, query, qopts...)
	defer q.Close()

	results := make([]Result, 0, limit)
	for len(results) < limit && q.Next(qctx) {
		ans := q.Current()
		results = append(results, toResult(ans.Solution))
	}

	if err := q.Err(); err != nil {
		if qctx.Err() != nil {
			// Step budget exceeded: return what we have, not an error.
			logging.ReasonerDebug("query step budget exceeded after %d results: %v", len(results), err)
			return &QueryOutcome{Results: results}, nil
		}
		if len(results) == 0 {
			return nil, classifyQueryError(err)
		}
		logging.Get(logging.CategoryReasoner).Warn("answer processing error after %d results: %v", len(results), err)
	}

	outcome := &QueryOutcome{Results: results}
	if opts.Trace {
		outcome.Trace = buildProofTree(query, results)
	}
	return outcome, nil
}

// classifyQueryError distinguishes a query-parse rejection from a
// per-answer processing failure. Trealla reports both as plain errors; we
// key off the message shape the parser uses.
func classifyQueryError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "syntax_error") || strings.Contains(msg, "parse") {
		return mcrerrors.Wrap(mcrerrors.PrologQuerySyntax, "query failed to parse", err)
	}
	return mcrerrors.Wrap(mcrerrors.PrologAnswerProcessing, "answer processing failed", err)
}

// toResult converts a Trealla solution map into the adapter's Result shape,
// suppressing anonymous variables and collapsing an empty binding set into
// the True sentinel.
func toResult(solution trealla.Bindings) Result {
	bindings := make(map[string]string, len(solution))
	for name, term := range solution {
		if strings.HasPrefix(name, "_") {
			continue
		}
		bindings[name] = fmt.Sprintf("%v", term)
	}
	if len(bindings) == 0 {
		return Result{True: true}
	}
	return Result{Bindings: bindings}
}

// Validate consults knowledgeBase without querying. It never throws: any
// parse or consult rejection is reported as valid=false with the engine's
// error string.
func (a *Adapter) Validate(ctx context.Context, knowledgeBase string) (valid bool, errMsg string) {
	timer := logging.StartTimer(logging.CategoryReasoner, "Validate")
	defer timer.Stop()

	pl, err := a.fresh()
	if err != nil {
		return false, err.Error()
	}
	defer pl.Close()

	vctx, cancel := context.WithTimeout(ctx, a.cfg.QueryTimeout)
	defer cancel()

	if err := pl.ConsultText(vctx, "user", knowledgeBase); err != nil {
		logging.ReasonerDebug("validate: consult rejected: %v", err)
		return false, err.Error()
	}
	return true, ""
}
