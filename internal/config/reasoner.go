package config

// ReasonerConfig configures the Prolog Reasoner Adapter.
type ReasonerConfig struct {
	// QueryTimeout bounds a single consult-and-query call; spec.md §4.1
	// requires the engine to return partial results rather than error when
	// its per-operation step budget is exceeded.
	QueryTimeout string `yaml:"query_timeout"`
	// DefaultLimit is the solution-count ceiling applied when a caller
	// does not specify one (spec.md §4.1 default: 10).
	DefaultLimit int `yaml:"default_limit"`
	// LibraryDir, if set, is preopened into the Prolog interpreter's WASI
	// sandbox so library/1 directives in consulted text can resolve.
	LibraryDir string `yaml:"library_dir"`
}

// DefaultReasonerConfig returns production defaults.
func DefaultReasonerConfig() ReasonerConfig {
	return ReasonerConfig{
		QueryTimeout: "30s",
		DefaultLimit: 10,
	}
}
