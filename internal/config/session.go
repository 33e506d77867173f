package config

// SessionConfig configures the Session Store.
type SessionConfig struct {
	// Backend selects "memory" or "file".
	Backend string `yaml:"backend"`
	// DataDir is the directory file-backed sessions are persisted under
	// (one JSON file per session, spec.md §6).
	DataDir string `yaml:"data_dir"`
	// EmbeddingDims, when nonzero, enables the session vector index
	// (the sqlite-vec table hosted by internal/router's
	// SQLitePerformanceStore).
	EmbeddingDims int `yaml:"embedding_dims"`
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Backend: "memory",
		DataDir: "data/sessions",
	}
}

// ExecutionConfig configures the MCR Service's refinement and routing behavior.
type ExecutionConfig struct {
	// MaxRefinementAttempts bounds the assert-with-validation-loop retry
	// count (spec.md §9 open question (a); default 3).
	MaxRefinementAttempts int `yaml:"max_refinement_attempts"`
	// DefaultTranslationStrategyID is the active base strategy ID used
	// when the Router returns no recommendation (spec.md §4.5).
	DefaultTranslationStrategyID string `yaml:"default_translation_strategy_id"`
	// SystemDefaultStrategyID is the last resort in the fallback chain
	// (spec.md §4.4/§8 scenario 6: {baseId}{suffix} -> {baseId} ->
	// system default), independent of the mutable base strategy ID so a
	// setTranslationStrategy call never removes the ultimate fallback.
	SystemDefaultStrategyID string `yaml:"system_default_strategy_id"`
}

// DefaultExecutionConfig returns sensible defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		MaxRefinementAttempts:        3,
		DefaultTranslationStrategyID: "SIR-R1",
		SystemDefaultStrategyID:      "SYSTEM-DEFAULT",
	}
}

// RouterConfig configures the Input Router's performance store.
type RouterConfig struct {
	// DatabasePath is the SQLite file backing the PerformanceStore.
	DatabasePath string `yaml:"database_path"`
	// PrimaryMetric names the metrics map key used as the primary sort key
	// when ranking strategy performance records (spec.md §4.5).
	PrimaryMetric string `yaml:"primary_metric"`
}

// DefaultRouterConfig returns sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		DatabasePath:  "data/router_performance.db",
		PrimaryMetric: "success_rate",
	}
}

// EmbeddingConfig configures the optional embedding engine used to populate
// a session's embeddings map.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // "genai" or "" (disabled)
	GenAIKey   string `yaml:"genai_api_key"`
	GenAIModel string `yaml:"genai_model"`
	TaskType   string `yaml:"task_type"`
}

// DefaultEmbeddingConfig returns sensible defaults (disabled).
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		GenAIModel: "gemini-embedding-001",
		TaskType:   "SEMANTIC_SIMILARITY",
	}
}
