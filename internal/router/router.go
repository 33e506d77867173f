// Package router implements the Input Router (spec.md §4.5): a stateless
// classifier plus a read-only adapter over the Performance Record store.
package router

import (
	"errors"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/automenta/mcr/internal/logging"
)

// InputClass is the closed classification of natural-language input.
type InputClass string

const (
	ClassQuery  InputClass = "general_query"
	ClassAssert InputClass = "general_assert"
)

// whWords is the closed set of wh-word / interrogative leaders that mark
// input as a query even without a "?".
var whWords = []string{"who", "what", "where", "when", "why", "how", "is", "are", "do", "does", "can", "should", "would"}

// Classify implements spec.md §4.5 step 1.
func Classify(nlText string) InputClass {
	if strings.Contains(nlText, "?") {
		return ClassQuery
	}
	firstWord := strings.ToLower(strings.TrimSpace(firstToken(nlText)))
	for _, w := range whWords {
		if firstWord == w {
			return ClassQuery
		}
	}
	return ClassAssert
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			return s[:i]
		}
	}
	return s
}

// errNoRecord signals a PerformanceStore miss through the singleflight
// Do call; it never escapes Recommend as a real error.
var errNoRecord = errors.New("router: no performance record")

// Router is a stateless adapter over a PerformanceStore. It never writes.
// Concurrent Recommend calls for the same (class, llmModelID) pair share a
// single in-flight PerformanceStore lookup rather than each hitting SQLite.
type Router struct {
	store PerformanceStore
	sf    singleflight.Group
}

// NewRouter binds a Router to a PerformanceStore.
func NewRouter(store PerformanceStore) *Router {
	return &Router{store: store}
}

// Recommend implements spec.md §4.5 step 2. A nil return means "use
// configured base strategy" — the Service's responsibility, not the
// Router's.
func (r *Router) Recommend(nlText, llmModelID string) *string {
	class := Classify(nlText)
	key := string(class) + "|" + llmModelID

	v, err, shared := r.sf.Do(key, func() (any, error) {
		hash, ok := r.store.BestStrategyHash(class, llmModelID)
		if !ok {
			return nil, errNoRecord
		}
		return hash, nil
	})
	if err != nil {
		logging.RouterDebug("no performance record for class=%s model=%s, recommending nil", class, llmModelID)
		return nil
	}
	hash := v.(string)
	logging.Router("recommending strategy_hash=%s for class=%s model=%s (deduped=%v)", hash, class, llmModelID, shared)
	return &hash
}
