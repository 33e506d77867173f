package router

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"

	"github.com/automenta/mcr/internal/logging"
)

// PerformanceRecord is the Router's input type (spec.md §3): persisted
// externally, read but never written by the Router. example_id is kept for
// schema completeness even though MCR itself never populates it — a
// separate training/evaluation collaborator is expected to fill the
// performance store (spec.md §9 open question (c)).
type PerformanceRecord struct {
	StrategyHash            string
	InputClassExampleIDPrefix string
	LLMModelID              string
	InputClass              InputClass
	Metrics                 map[string]float64
	LatencyMS               float64
	Cost                    float64
}

// PerformanceStore is the read-only contract the Router queries.
type PerformanceStore interface {
	// BestStrategyHash returns the strategy_hash of the best-performing
	// strategy for (class, llmModelID), ordered by primary metric
	// descending, latency ascending, cost ascending — or ok=false if no
	// record matches.
	BestStrategyHash(class InputClass, llmModelID string) (hash string, ok bool)
}

// SQLitePerformanceStore is a mattn/go-sqlite3-backed PerformanceStore. It
// also optionally hosts a sqlite-vec session vector index on the same
// connection (EnableVectorIndex), mirroring how the performance table and
// the vector table share one database file.
type SQLitePerformanceStore struct {
	db            *sql.DB
	primaryMetric string
	vectorExt     bool
}

// OpenSQLitePerformanceStore opens (creating if necessary) the performance
// database at path and ensures its schema exists.
func OpenSQLitePerformanceStore(path, primaryMetric string) (*SQLitePerformanceStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("router: failed to open performance store %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("router: failed to connect to performance store %s: %w", path, err)
	}

	schema := `CREATE TABLE IF NOT EXISTS performance_records (
		strategy_hash TEXT NOT NULL,
		input_class TEXT NOT NULL,
		llm_model_id TEXT NOT NULL,
		example_id_prefix TEXT,
		metric_value REAL NOT NULL,
		latency_ms REAL NOT NULL,
		cost REAL NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("router: failed to initialize schema: %w", err)
	}

	if primaryMetric == "" {
		primaryMetric = "success_rate"
	}
	logging.Router("opened performance store %s, primary_metric=%s", path, primaryMetric)
	return &SQLitePerformanceStore{db: db, primaryMetric: primaryMetric}, nil
}

// Close releases the underlying database handle.
func (s *SQLitePerformanceStore) Close() error {
	return s.db.Close()
}

func (s *SQLitePerformanceStore) BestStrategyHash(class InputClass, llmModelID string) (string, bool) {
	timer := logging.StartTimer(logging.CategoryRouter, "BestStrategyHash")
	defer timer.Stop()

	row := s.db.QueryRow(
		`SELECT strategy_hash FROM performance_records
		 WHERE input_class = ? AND llm_model_id = ?
		 ORDER BY metric_value DESC, latency_ms ASC, cost ASC
		 LIMIT 1`,
		string(class), llmModelID,
	)

	var hash string
	if err := row.Scan(&hash); err != nil {
		if err != sql.ErrNoRows {
			logging.Get(logging.CategoryRouter).Warn("BestStrategyHash query failed: %v", err)
		}
		return "", false
	}
	return hash, true
}

// EnableVectorIndex attempts to create a sqlite-vec vec0 virtual table for
// per-session clause embeddings, sized to dim dimensions. Returns true if
// the sqlite-vec extension is available (registered via vec_ext.go, built
// with -tags sqlite_vec,cgo) and the table now exists; false means the
// extension isn't loaded and session vector search stays disabled
// (UpsertSessionEmbedding and NearestClauses become no-ops).
func (s *SQLitePerformanceStore) EnableVectorIndex(dim int) bool {
	stmt := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS session_vectors USING vec0(embedding float[%d], session_id TEXT, clause TEXT)",
		dim)
	if _, err := s.db.Exec(stmt); err != nil {
		logging.RouterDebug("sqlite-vec unavailable, session vector index disabled: %v", err)
		s.vectorExt = false
		return false
	}
	s.vectorExt = true
	logging.Router("session vector index enabled, dim=%d", dim)
	return true
}

// UpsertSessionEmbedding indexes one session clause's embedding for
// approximate nearest-neighbor recall. A no-op when EnableVectorIndex was
// never called or failed.
func (s *SQLitePerformanceStore) UpsertSessionEmbedding(sessionID, clause string, vector []float32) error {
	if !s.vectorExt {
		return nil
	}
	_, err := s.db.Exec(
		"INSERT INTO session_vectors (embedding, session_id, clause) VALUES (?, ?, ?)",
		encodeFloat32Slice(vector), sessionID, clause,
	)
	return err
}

// NearestClauses returns up to k clauses previously indexed for sessionID,
// ranked by cosine distance to query ascending (closest first). Returns an
// empty, nil-error result when the vector index is disabled.
func (s *SQLitePerformanceStore) NearestClauses(sessionID string, query []float32, k int) ([]string, error) {
	if !s.vectorExt {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}
	rows, err := s.db.Query(
		`SELECT clause FROM session_vectors
		 WHERE session_id = ?
		 ORDER BY vector_distance_cos(embedding, ?) ASC
		 LIMIT ?`,
		sessionID, encodeFloat32Slice(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("router: nearest clause query failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var clause string
		if err := rows.Scan(&clause); err != nil {
			return nil, err
		}
		out = append(out, clause)
	}
	return out, rows.Err()
}

// encodeFloat32Slice packs a vector into the little-endian blob layout
// sqlite-vec expects for a float[N] column.
func encodeFloat32Slice(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// RecordPerformance inserts one performance record. Exposed for the
// external training/evaluation collaborator that populates this store; the
// Router itself never calls it.
func (s *SQLitePerformanceStore) RecordPerformance(rec PerformanceRecord) error {
	metricValue := rec.Metrics[s.primaryMetric]
	_, err := s.db.Exec(
		`INSERT INTO performance_records
		 (strategy_hash, input_class, llm_model_id, example_id_prefix, metric_value, latency_ms, cost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.StrategyHash, string(rec.InputClass), rec.LLMModelID, rec.InputClassExampleIDPrefix,
		metricValue, rec.LatencyMS, rec.Cost,
	)
	return err
}
