package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/automenta/mcr/internal/logging"
)

// Store is the Session Store's backend-agnostic contract (spec.md §4.3).
// Implementations: Memory (process-local map) and File (one JSON file per
// session). Per-session mutation is serialized; concurrent reads across
// sessions are safe (spec.md §5).
type Store interface {
	CreateSession(idOpt string) (*Session, error)
	GetSession(id string) (*Session, bool)
	AddFacts(id string, clauses []string) (bool, error)
	SetKnowledgeBase(id string, text string) (bool, error)
	GetKnowledgeBase(id string) (string, bool)
	// SetEmbedding stores a single clause's vector embedding, populating
	// the session's optional embeddings map (spec.md §3/§4.3). Callers
	// compute the vector externally (the Store has no embedding engine of
	// its own); ok is false if the session does not exist.
	SetEmbedding(id string, clause string, vector []float32) (bool, error)
	GetLexiconSummary(id string) (string, bool)
	DeleteSession(id string) bool
	ListSessions() []SessionInfo
}

// SessionInfo is the summary form returned by ListSessions.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// deriveLexicon rebuilds the full lexicon set for a fact slice, logging and
// skipping (non-fatal) any clause that fails to parse.
func deriveLexicon(facts []string) []string {
	seen := make(map[string]struct{}, len(facts))
	lexicon := make([]string, 0, len(facts))
	for _, f := range facts {
		entry, ok := deriveLexiconEntry(f)
		if !ok {
			logging.SessionDebug("lexicon derivation skipped unparseable clause: %q", f)
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		lexicon = append(lexicon, entry)
	}
	return lexicon
}

// sanitizeFacts drops non-`.`-terminated or empty strings, warning for each
// (spec.md §4.3 addFacts). Non-string elements are the caller's concern —
// Go's static typing means they can never reach this function.
func sanitizeFacts(clauses []string) []string {
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		trimmed := strings.TrimSpace(c)
		if trimmed == "" || !strings.HasSuffix(trimmed, ".") {
			logging.Get(logging.CategorySession).Warn("dropping malformed candidate clause: %q", c)
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func newSessionID(idOpt string) string {
	if idOpt != "" {
		return idOpt
	}
	return uuid.NewString()
}

// MemoryStore is the in-memory Session Store backend: a process-local map
// guarded by a mutex, one lock per store rather than per session — the
// memory backend's operations are already O(map access), so the coarser
// lock keeps the implementation simple without materially hurting
// concurrency for the session counts MCR expects.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore returns an empty in-memory Session Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) CreateSession(idOpt string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := newSessionID(idOpt)
	if existing, ok := m.sessions[id]; ok {
		return existing.clone(), nil
	}
	s := &Session{ID: id, CreatedAt: time.Now(), Facts: []string{}, Lexicon: []string{}}
	m.sessions[id] = s
	logging.Session("created session %s", id)
	return s.clone(), nil
}

func (m *MemoryStore) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.clone(), true
}

func (m *MemoryStore) AddFacts(id string, clauses []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false, fmt.Errorf("session %s not found", id)
	}
	survivors := sanitizeFacts(clauses)
	s.Facts = append(s.Facts, survivors...)
	s.Lexicon = deriveLexicon(s.Facts)
	return true, nil
}

func (m *MemoryStore) SetKnowledgeBase(id string, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false, fmt.Errorf("session %s not found", id)
	}
	lines := strings.Split(text, "\n")
	s.Facts = sanitizeFacts(lines)
	s.Lexicon = deriveLexicon(s.Facts)
	return true, nil
}

func (m *MemoryStore) SetEmbedding(id string, clause string, vector []float32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return false, fmt.Errorf("session %s not found", id)
	}
	if s.Embeddings == nil {
		s.Embeddings = make(map[string][]float32, 1)
	}
	s.Embeddings[clause] = append([]float32(nil), vector...)
	return true, nil
}

func (m *MemoryStore) GetKnowledgeBase(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return "", false
	}
	return s.KnowledgeBase(), true
}

func (m *MemoryStore) GetLexiconSummary(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return "", false
	}
	return s.LexiconSummary(), true
}

func (m *MemoryStore) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *MemoryStore) ListSessions() []SessionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, SessionInfo{ID: s.ID, CreatedAt: s.CreatedAt})
	}
	return out
}
