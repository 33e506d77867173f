// Command mcrd is the MCR process composition root: it wires config,
// logging, and every core collaborator into a *service.Service. Per
// spec.md §1, transport (HTTP/WebSocket/MCP) and frontends are out of
// scope here — this binary only proves the wiring boots; a real deployment
// embeds service.Service behind whatever transport it needs.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/automenta/mcr/internal/config"
	"github.com/automenta/mcr/internal/embedding"
	"github.com/automenta/mcr/internal/llm"
	"github.com/automenta/mcr/internal/logging"
	"github.com/automenta/mcr/internal/ontology"
	"github.com/automenta/mcr/internal/prompt"
	"github.com/automenta/mcr/internal/reasoner"
	"github.com/automenta/mcr/internal/router"
	"github.com/automenta/mcr/internal/service"
	"github.com/automenta/mcr/internal/session"
	"github.com/automenta/mcr/internal/strategy"
)

func main() {
	var (
		workspace    = flag.String("workspace", ".", "MCR workspace root (holds .mcr/logs, data/)")
		configPath   = flag.String("config", "mcr.yaml", "path to the MCR config file")
		strategyDir  = flag.String("strategies", "configs/strategies", "directory of strategy JSON definitions")
		promptDir    = flag.String("prompts", "", "optional directory of prompt YAML overrides")
		ontologyDir  = flag.String("ontologies", "configs/ontologies", "directory of global ontology .pl files")
		verbose      = flag.Bool("verbose", false, "enable debug-level zap logging")
	)
	flag.Parse()

	zapCfg := zap.NewProductionConfig()
	if *verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcrd: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := logging.Initialize(*workspace); err != nil {
		logger.Warn("failed to initialize category file logging", zap.Error(err))
	}
	defer logging.CloseAll()

	svc, err := bootstrap(*configPath, *strategyDir, *promptDir, *ontologyDir, logger)
	if err != nil {
		logger.Fatal("mcrd failed to start", zap.Error(err))
	}

	logger.Info("mcrd ready",
		zap.String("workspace", *workspace),
		zap.Int("prompt_templates", len(svc.GetPrompts())))
}

// bootstrap wires every collaborator named in spec.md §2 into a
// *service.Service, in the dependency order the System Overview table
// lists them (leaf-first).
func bootstrap(configPath, strategyDir, promptDir, ontologyDir string, logger *zap.Logger) (*service.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	reasonerAdapter, err := reasoner.NewAdapter(reasoner.FromSettings(cfg.Reasoner))
	if err != nil {
		return nil, fmt.Errorf("reasoner: %w", err)
	}

	strategies := strategy.NewRegistry()
	if err := strategies.LoadDir(strategyDir); err != nil {
		logger.Warn("no strategies loaded", zap.String("dir", strategyDir), zap.Error(err))
	}

	prompts := prompt.NewRegistry()
	prompt.RegisterDefaults(prompts)
	if promptDir != "" {
		if err := prompts.LoadDir(promptDir); err != nil {
			logger.Warn("failed to load prompt overrides", zap.String("dir", promptDir), zap.Error(err))
		}
	}

	var sessions session.Store
	switch cfg.Session.Backend {
	case "file":
		fileStore, err := session.NewFileStore(cfg.Session.DataDir)
		if err != nil {
			return nil, fmt.Errorf("session file store: %w", err)
		}
		sessions = fileStore
	default:
		sessions = session.NewMemoryStore()
	}

	perfStore, err := router.OpenSQLitePerformanceStore(cfg.Router.DatabasePath, cfg.Router.PrimaryMetric)
	if err != nil {
		return nil, fmt.Errorf("router performance store: %w", err)
	}
	inputRouter := router.NewRouter(perfStore)

	onto := ontology.NewDirSource(ontologyDir)

	var llmAdapter llm.Adapter
	switch cfg.LLM.Provider {
	default:
		llmAdapter = llm.NewZAIAdapter(cfg.LLM)
	}

	var embedder embedding.EmbeddingEngine
	var vectorIndex service.VectorIndex
	if cfg.Embedding.Provider == "genai" {
		embedder, err = embedding.NewGenAIEngine(cfg.Embedding.GenAIKey, cfg.Embedding.GenAIModel, cfg.Embedding.TaskType)
		if err != nil {
			logger.Warn("failed to initialize embedding engine, session embeddings disabled", zap.Error(err))
			embedder = nil
		} else if cfg.Session.EmbeddingDims > 0 {
			if perfStore.EnableVectorIndex(cfg.Session.EmbeddingDims) {
				vectorIndex = perfStore
			} else {
				logger.Warn("sqlite-vec extension unavailable, semantic context disabled (build with -tags sqlite_vec,cgo to enable)")
			}
		}
	}

	svc := service.New(service.Deps{
		Sessions:    sessions,
		Strategies:  strategies,
		Reasoner:    reasonerAdapter,
		Router:      inputRouter,
		Ontologies:  onto,
		Prompts:     prompts,
		LLM:         llmAdapter,
		LLMModelID:  cfg.LLM.Model,
		Execution:   cfg.Execution,
		Embedder:    embedder,
		VectorIndex: vectorIndex,
	})

	logging.Boot("mcr service wired: backend=%s provider=%s strategies_dir=%s embeddings=%t",
		cfg.Session.Backend, cfg.LLM.Provider, strategyDir, embedder != nil)
	return svc, nil
}
