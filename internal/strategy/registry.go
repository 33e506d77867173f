package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/automenta/mcr/internal/logging"
)

// Registry holds loaded strategy definitions, read-only process-wide after
// load (spec.md §5).
type Registry struct {
	mu         sync.RWMutex
	byID       map[string]*Strategy
	byHash     map[string]*Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Strategy), byHash: make(map[string]*Strategy)}
}

// LoadDir loads every *.json strategy definition in dir.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("strategy: failed to read dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := r.LoadFile(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads one strategy definition file.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("strategy: failed to read %s: %w", path, err)
	}
	return r.LoadBytes(data)
}

// LoadBytes parses and registers a strategy definition, computing its
// content hash if not already set (spec.md §3: "content hash, stable
// across machines").
func (r *Registry) LoadBytes(data []byte) error {
	var s Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("strategy: failed to parse definition: %w", err)
	}
	if s.ContentHash == "" {
		s.ContentHash = ContentHash(data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = &s
	r.byHash[s.ContentHash] = &s
	logging.Strategy("loaded strategy id=%s hash=%s nodes=%d", s.ID, s.ContentHash, len(s.Nodes))
	return nil
}

// ContentHash computes a stable content-addressable identifier for a
// strategy's raw JSON bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns a strategy by ID.
func (r *Registry) Get(id string) (*Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// GetByHash returns a strategy by content hash (used when the Router
// recommends a strategy_hash rather than an ID).
func (r *Registry) GetByHash(hash string) (*Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byHash[hash]
	return s, ok
}

// Resolve implements the base-strategy fallback chain from spec.md §4.4 /
// §8 scenario 6: try baseID+suffix, then baseID, then systemDefault.
func (r *Registry) Resolve(baseID, suffix, systemDefault string) (*Strategy, bool) {
	if s, ok := r.Get(baseID + suffix); ok {
		return s, true
	}
	if s, ok := r.Get(baseID); ok {
		return s, true
	}
	if s, ok := r.Get(systemDefault); ok {
		return s, true
	}
	return nil, false
}
