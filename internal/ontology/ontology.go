// Package ontology is the Ontology Source external interface (spec.md §6):
// a pool of Prolog rules stored outside any session, concatenated into the
// reasoner KB at query time (GLOSSARY: Global ontology).
package ontology

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/automenta/mcr/internal/logging"
)

// Entry is one named ontology, with its rule text loaded only when
// requested (listOntologies(includeRules)).
type Entry struct {
	Name  string
	Rules string
}

// Source is the Ontology Source contract. Failures are caught by the
// Service and reported in debugInfo without aborting the user request —
// Source implementations should return errors rather than panic so the
// Service can apply that policy.
type Source interface {
	ListOntologies(ctx context.Context, includeRules bool) ([]Entry, error)
	GetGlobalOntologyRulesAsString(ctx context.Context) (string, error)
}

// DirSource loads one ontology per `.pl` file in a directory, the way the
// teacher's engine loads a schema file per call to LoadSchema — generalized
// here to a whole directory of rule files concatenated on demand.
type DirSource struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string
}

// NewDirSource returns a Source rooted at dir. The directory is read
// lazily on first use, not at construction time.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir, cache: make(map[string]string)}
}

func (d *DirSource) ListOntologies(ctx context.Context, includeRules bool) ([]Entry, error) {
	names, err := d.names()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e := Entry{Name: name}
		if includeRules {
			rules, err := d.rulesFor(name)
			if err != nil {
				return nil, err
			}
			e.Rules = rules
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (d *DirSource) GetGlobalOntologyRulesAsString(ctx context.Context) (string, error) {
	names, err := d.names()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, name := range names {
		rules, err := d.rulesFor(name)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(rules)
	}
	return sb.String(), nil
}

func (d *DirSource) names() ([]string, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.OntologyDebug("ontology dir %s does not exist, treating as empty", d.dir)
			return nil, nil
		}
		return nil, fmt.Errorf("ontology: failed to read dir %s: %w", d.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".pl" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".pl"))
	}
	sort.Strings(names)
	return names, nil
}

func (d *DirSource) rulesFor(name string) (string, error) {
	d.mu.RLock()
	if cached, ok := d.cache[name]; ok {
		d.mu.RUnlock()
		return cached, nil
	}
	d.mu.RUnlock()

	path := filepath.Join(d.dir, name+".pl")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ontology: failed to read %s: %w", path, err)
	}

	d.mu.Lock()
	d.cache[name] = string(data)
	d.mu.Unlock()
	return string(data), nil
}
