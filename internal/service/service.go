// Package service implements the MCR Service: the public orchestrator
// tying the Session Store, Strategy Registry/Executor, Reasoner Adapter,
// Input Router, Ontology Source, LLM Adapter, and Prompt Registry into the
// four primary operations plus introspection (spec.md §4.4).
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/automenta/mcr/internal/config"
	"github.com/automenta/mcr/internal/embedding"
	"github.com/automenta/mcr/internal/llm"
	"github.com/automenta/mcr/internal/logging"
	"github.com/automenta/mcr/internal/mcrerrors"
	"github.com/automenta/mcr/internal/ontology"
	"github.com/automenta/mcr/internal/prompt"
	"github.com/automenta/mcr/internal/reasoner"
	"github.com/automenta/mcr/internal/router"
	"github.com/automenta/mcr/internal/session"
	"github.com/automenta/mcr/internal/strategy"
)

// ReasonerPort is the subset of the Reasoner Adapter the Service calls
// directly (beyond what it hands to the Executor), kept as an interface so
// tests can substitute a fake engine rather than booting a real Trealla
// interpreter. *reasoner.Adapter satisfies it structurally.
type ReasonerPort interface {
	strategy.ReasonerPort
	ConsultAndQuery(ctx context.Context, knowledgeBase, query string, opts reasoner.QueryOptions) (*reasoner.QueryOutcome, error)
}

// VectorIndex is the narrow sqlite-vec-backed contract the Service uses to
// index and recall session clause embeddings for semantic context
// retrieval. *router.SQLitePerformanceStore satisfies it structurally.
type VectorIndex interface {
	UpsertSessionEmbedding(sessionID, clause string, vector []float32) error
	NearestClauses(sessionID string, query []float32, k int) ([]string, error)
}

// Deps bundles every collaborator a Service needs. All fields are required
// except Ontologies (treated as an always-empty source when nil) and
// Embedder/VectorIndex, which together are optional: when either is nil,
// session embeddings and semantic context retrieval stay disabled and the
// Service behaves exactly as if no embedding provider were configured.
type Deps struct {
	Sessions    session.Store
	Strategies  *strategy.Registry
	Reasoner    ReasonerPort
	Router      *router.Router
	Ontologies  ontology.Source
	Prompts     *prompt.Registry
	LLM         llm.Adapter
	LLMModelID  string
	Execution   config.ExecutionConfig
	Embedder    embedding.EmbeddingEngine
	VectorIndex VectorIndex
}

// Service is the public surface of MCR's core (spec.md §4.4).
type Service struct {
	sessions   session.Store
	strategies *strategy.Registry
	executor   *strategy.Executor
	reasoner   ReasonerPort
	router     *router.Router
	ontologies ontology.Source
	prompts    *prompt.Registry
	llm        llmPort
	llmModelID string

	embedder    embedding.EmbeddingEngine
	vectorIndex VectorIndex

	systemDefaultID string

	mu             sync.RWMutex
	baseStrategyID string
	maxRefinement  int
	debugLevel     DebugLevel
}

// New builds a Service from its collaborators.
func New(d Deps) *Service {
	onto := d.Ontologies
	if onto == nil {
		onto = ontology.NewDirSource("")
	}
	port := newLLMPort(d.LLM)
	return &Service{
		sessions:       d.Sessions,
		strategies:     d.Strategies,
		executor:       strategy.NewExecutor(port, d.Reasoner),
		reasoner:       d.Reasoner,
		router:         d.Router,
		ontologies:     onto,
		prompts:        d.Prompts,
		llm:             port,
		llmModelID:      d.LLMModelID,
		embedder:        d.Embedder,
		vectorIndex:     d.VectorIndex,
		baseStrategyID:  d.Execution.DefaultTranslationStrategyID,
		systemDefaultID: d.Execution.SystemDefaultStrategyID,
		maxRefinement:   d.Execution.MaxRefinementAttempts,
		debugLevel:      DebugBasic,
	}
}

// SetTranslationStrategy replaces the base strategy ID used when the
// Router returns no recommendation (spec.md §9 design note: the Service
// field is explicitly mutable, protected by the Service's own lock rather
// than requiring a fresh Service per strategy).
func (s *Service) SetTranslationStrategy(baseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseStrategyID = baseID
	logging.ServiceLog("active base translation strategy set to %q", baseID)
}

// SetDebugLevel changes how much diagnostic material subsequent results
// carry in DebugInfo.
func (s *Service) SetDebugLevel(level DebugLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debugLevel = level
}

func (s *Service) currentBaseStrategy() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseStrategyID
}

func (s *Service) currentDebugLevel() DebugLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debugLevel
}

func (s *Service) currentMaxRefinement() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxRefinement
}

// resolveStrategy picks a strategy via the Router, falling back through
// {baseId}{suffix} -> {baseId} -> system default (spec.md §4.4 step 2,
// §8 scenario 6). A non-empty routerHash short-circuits straight to a
// content-hash lookup.
func (s *Service) resolveStrategy(nlText, suffix string) (*strategy.Strategy, error) {
	base := s.currentBaseStrategy()

	if hash := s.router.Recommend(nlText, s.llmModelID); hash != nil {
		if strat, ok := s.strategies.GetByHash(*hash); ok {
			return strat, nil
		}
		logging.RouterWarn("recommended strategy_hash %s not found in registry, falling back", *hash)
	}

	strat, ok := s.strategies.Resolve(base, suffix, s.systemDefaultID)
	if !ok {
		return nil, mcrerrors.New(mcrerrors.StrategyNotFound,
			fmt.Sprintf("no strategy found for base %q (suffix %q)", base, suffix))
	}
	return strat, nil
}

func (s *Service) ontologyRules(ctx context.Context, debugInfo map[string]any) string {
	rules, err := s.ontologies.GetGlobalOntologyRulesAsString(ctx)
	if err != nil {
		logging.OntologyWarn("ontology fetch failed, continuing without global rules: %v", err)
		if debugInfo != nil {
			debugInfo["ontologyError"] = err.Error()
		}
		return ""
	}
	return rules
}

// assembleContext fetches the global ontology rules and, when an embedder
// and vector index are configured, the nearest indexed clauses for nlText,
// concurrently — the two are independent I/O calls (a directory read and a
// SQLite lookup behind an embedding API round-trip) with nothing to gain
// from running them in sequence.
func (s *Service) assembleContext(ctx context.Context, sess *session.Session, nlText string, debugInfo map[string]any) (ontologyRules, dynamicOntology string) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ontologyRules = s.ontologyRules(gctx, debugInfo)
		return nil
	})
	g.Go(func() error {
		dynamicOntology = s.semanticContext(gctx, sess, nlText)
		return nil
	})
	_ = g.Wait() // both legs already handle their own errors non-fatally
	return ontologyRules, dynamicOntology
}

// semanticContext recalls the session's own clauses nearest to nlText via
// the embedding engine and vector index, for splicing into the execution
// KB as dynamic, query-specific context. Returns "" whenever embeddings
// are disabled or the lookup fails — never an error, since this is an
// enrichment, not a required input.
func (s *Service) semanticContext(ctx context.Context, sess *session.Session, nlText string) string {
	if s.embedder == nil || s.vectorIndex == nil {
		return ""
	}
	vector, err := s.embedder.Embed(ctx, nlText)
	if err != nil {
		logging.EmbeddingWarn("query embedding failed, continuing without semantic context: %v", err)
		return ""
	}
	clauses, err := s.vectorIndex.NearestClauses(sess.ID, vector, 5)
	if err != nil {
		logging.EmbeddingWarn("nearest-clause lookup failed, continuing without semantic context: %v", err)
		return ""
	}
	return strings.Join(clauses, "\n")
}

// embedAndIndexFacts computes and persists an embedding for each newly
// asserted clause, both on the session (session.Store.SetEmbedding, so
// Session.Embeddings stays populated per spec.md §3) and in the sqlite-vec
// index (for semanticContext's nearest-neighbor recall). Best-effort and
// non-fatal: a failure here never fails the assert that produced the facts.
func (s *Service) embedAndIndexFacts(ctx context.Context, sessionID string, facts []string) {
	if s.embedder == nil || len(facts) == 0 {
		return
	}
	vectors, err := s.embedder.EmbedBatch(ctx, facts)
	if err != nil {
		logging.EmbeddingWarn("failed to embed asserted facts for session %s: %v", sessionID, err)
		return
	}
	for i, fact := range facts {
		if i >= len(vectors) {
			break
		}
		if _, err := s.sessions.SetEmbedding(sessionID, fact, vectors[i]); err != nil {
			logging.EmbeddingWarn("failed to store embedding for session %s: %v", sessionID, err)
		}
		if s.vectorIndex != nil {
			if err := s.vectorIndex.UpsertSessionEmbedding(sessionID, fact, vectors[i]); err != nil {
				logging.EmbeddingWarn("failed to index embedding for session %s: %v", sessionID, err)
			}
		}
	}
}

func (s *Service) newDebugInfo() map[string]any {
	if s.currentDebugLevel() == DebugNone {
		return nil
	}
	return make(map[string]any)
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
