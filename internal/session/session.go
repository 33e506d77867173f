// Package session implements the Session Store (spec.md §4.3): the
// exclusive owner of Session contents, with in-memory and file-backed
// implementations sharing one Store interface.
package session

import (
	"sort"
	"time"
)

// Session holds one conversation's Prolog knowledge base plus the lexicon
// derived from it (spec.md §3). Facts is the canonical storage; Lexicon is
// always re-derivable from Facts.
type Session struct {
	ID         string             `json:"id"`
	CreatedAt  time.Time          `json:"createdAt"`
	Facts      []string           `json:"facts"`
	Lexicon    []string           `json:"lexicon"`
	Embeddings map[string][]float32 `json:"embeddings,omitempty"`
	KBGraph    map[string]any     `json:"kbGraph,omitempty"`
}

// clone returns a deep-enough copy safe to hand to a caller as a snapshot.
func (s *Session) clone() *Session {
	cp := &Session{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Facts:     append([]string(nil), s.Facts...),
		Lexicon:   append([]string(nil), s.Lexicon...),
	}
	if s.Embeddings != nil {
		cp.Embeddings = make(map[string][]float32, len(s.Embeddings))
		for k, v := range s.Embeddings {
			cp.Embeddings[k] = append([]float32(nil), v...)
		}
	}
	if s.KBGraph != nil {
		cp.KBGraph = s.KBGraph // shared-immutable per spec.md §9
	}
	return cp
}

// KnowledgeBase joins Facts with newlines (getKnowledgeBase).
func (s *Session) KnowledgeBase() string {
	out := ""
	for i, f := range s.Facts {
		if i > 0 {
			out += "\n"
		}
		out += f
	}
	return out
}

// LexiconSummary returns a sorted predicate/arity listing formatted for
// prompt injection, or an empty-state message when the lexicon is empty.
func (s *Session) LexiconSummary() string {
	if len(s.Lexicon) == 0 {
		return "(no predicates defined yet)"
	}
	sorted := append([]string(nil), s.Lexicon...)
	sort.Strings(sorted)
	out := ""
	for i, p := range sorted {
		if i > 0 {
			out += "\n"
		}
		out += p
	}
	return out
}
