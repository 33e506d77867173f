package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/automenta/mcr/internal/logging"
)

// fileSessionDoc is the on-disk shape for a file-backed session
// (spec.md §6). Serialization is tolerant of missing optional fields on
// read.
type fileSessionDoc struct {
	ID         string                  `json:"id"`
	CreatedAt  time.Time               `json:"createdAt"`
	Facts      []string                `json:"facts"`
	Lexicon    []string                `json:"lexicon"`
	Embeddings [][2]json.RawMessage    `json:"embeddings,omitempty"` // entries form: [clause, vector]
	KBGraph    map[string]any          `json:"kbGraph,omitempty"`
}

// FileStore is the file-backed Session Store: one JSON file per session,
// serialized on every mutation, written atomically (write-then-rename) so
// a crashed mutation leaves the previous version intact (spec.md §4.3).
type FileStore struct {
	dir string

	mu    sync.Mutex // protects the locks map itself
	locks map[string]*sync.Mutex
}

// NewFileStore returns a file-backed Session Store rooted at dir, creating
// the directory if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: failed to create data dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (f *FileStore) lockFor(id string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		l = &sync.Mutex{}
		f.locks[id] = l
	}
	return l
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *FileStore) CreateSession(idOpt string) (*Session, error) {
	id := newSessionID(idOpt)
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if existing, ok := f.readLocked(id); ok {
		logging.SessionDebug("file session %s already exists, returning existing (idempotent)", id)
		return existing, nil
	}

	s := &Session{ID: id, CreatedAt: time.Now(), Facts: []string{}, Lexicon: []string{}}
	if err := f.writeLocked(s); err != nil {
		return nil, err
	}
	logging.Session("created file-backed session %s", id)
	return s.clone(), nil
}

func (f *FileStore) GetSession(id string) (*Session, bool) {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return f.readLocked(id)
}

func (f *FileStore) AddFacts(id string, clauses []string) (bool, error) {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, ok := f.readLocked(id)
	if !ok {
		return false, fmt.Errorf("session %s not found", id)
	}
	survivors := sanitizeFacts(clauses)
	s.Facts = append(s.Facts, survivors...)
	s.Lexicon = deriveLexicon(s.Facts)
	return true, f.writeLocked(s)
}

func (f *FileStore) SetKnowledgeBase(id string, text string) (bool, error) {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, ok := f.readLocked(id)
	if !ok {
		return false, fmt.Errorf("session %s not found", id)
	}
	s.Facts = sanitizeFacts(strings.Split(text, "\n"))
	s.Lexicon = deriveLexicon(s.Facts)
	return true, f.writeLocked(s)
}

func (f *FileStore) SetEmbedding(id string, clause string, vector []float32) (bool, error) {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, ok := f.readLocked(id)
	if !ok {
		return false, fmt.Errorf("session %s not found", id)
	}
	if s.Embeddings == nil {
		s.Embeddings = make(map[string][]float32, 1)
	}
	s.Embeddings[clause] = append([]float32(nil), vector...)
	return true, f.writeLocked(s)
}

func (f *FileStore) GetKnowledgeBase(id string) (string, bool) {
	s, ok := f.GetSession(id)
	if !ok {
		return "", false
	}
	return s.KnowledgeBase(), true
}

func (f *FileStore) GetLexiconSummary(id string) (string, bool) {
	s, ok := f.GetSession(id)
	if !ok {
		return "", false
	}
	return s.LexiconSummary(), true
}

func (f *FileStore) DeleteSession(id string) bool {
	lock := f.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	path := f.path(id)
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		logging.Get(logging.CategorySession).Error("failed to delete session file %s: %v", path, err)
		return false
	}
	return true
}

// ListSessions is optional on the file backend per spec.md §4.3; it scans
// the data directory for session files.
func (f *FileStore) ListSessions() []SessionInfo {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil
	}
	out := make([]SessionInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		if s, ok := f.readLocked(id); ok {
			out = append(out, SessionInfo{ID: s.ID, CreatedAt: s.CreatedAt})
		}
	}
	return out
}

func (f *FileStore) readLocked(id string) (*Session, bool) {
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		return nil, false
	}
	var doc fileSessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.Get(logging.CategorySession).Error("corrupt session file %s: %v", f.path(id), err)
		return nil, false
	}
	s := &Session{ID: doc.ID, CreatedAt: doc.CreatedAt, Facts: doc.Facts, Lexicon: doc.Lexicon, KBGraph: doc.KBGraph}
	if s.Facts == nil {
		s.Facts = []string{}
	}
	if s.Lexicon == nil {
		s.Lexicon = []string{}
	}
	if len(doc.Embeddings) > 0 {
		s.Embeddings = make(map[string][]float32, len(doc.Embeddings))
		for _, entry := range doc.Embeddings {
			var clause string
			var vec []float32
			if err := json.Unmarshal(entry[0], &clause); err != nil {
				continue
			}
			if err := json.Unmarshal(entry[1], &vec); err != nil {
				continue
			}
			s.Embeddings[clause] = vec
		}
	}
	return s, true
}

// writeLocked serializes s and writes it atomically: write to a temp file
// in the same directory, then rename over the target. A crash mid-write
// leaves the previous version in place.
func (f *FileStore) writeLocked(s *Session) error {
	doc := fileSessionDoc{ID: s.ID, CreatedAt: s.CreatedAt, Facts: s.Facts, Lexicon: s.Lexicon, KBGraph: s.KBGraph}
	for clause, vec := range s.Embeddings {
		clauseJSON, err := json.Marshal(clause)
		if err != nil {
			return fmt.Errorf("session: failed to marshal embedding key: %w", err)
		}
		vecJSON, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("session: failed to marshal embedding vector: %w", err)
		}
		doc.Embeddings = append(doc.Embeddings, [2]json.RawMessage{clauseJSON, vecJSON})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("session: failed to marshal session %s: %w", s.ID, err)
	}

	target := f.path(s.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("session: failed to write temp file for %s: %w", s.ID, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("session: failed to commit session %s: %w", s.ID, err)
	}
	return nil
}
