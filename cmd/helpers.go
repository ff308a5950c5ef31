package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/boilerbrain/internal/assistant"
	"github.com/ziadkadry99/boilerbrain/internal/auth"
	"github.com/ziadkadry99/boilerbrain/internal/chat"
	"github.com/ziadkadry99/boilerbrain/internal/config"
	"github.com/ziadkadry99/boilerbrain/internal/embeddings"
	"github.com/ziadkadry99/boilerbrain/internal/knowledge"
	"github.com/ziadkadry99/boilerbrain/internal/llm"
	"github.com/ziadkadry99/boilerbrain/internal/logging"
	"github.com/ziadkadry99/boilerbrain/internal/recovery"
	"github.com/ziadkadry99/boilerbrain/internal/reliability"
	"github.com/ziadkadry99/boilerbrain/internal/selector"
	"github.com/ziadkadry99/boilerbrain/internal/session"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `boilerbrain init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Log.Development)
}

// app holds the wired services shared by serve, mcp, ask and chat.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	selector  *selector.Selector
	knowledge *knowledge.Base
	chat      *chat.Service
	registry  *prometheus.Registry
	closers   []func() error
}

// Close releases stores in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// buildApp wires the diagnostic pipeline from config.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}

	primary, fallback, err := openStores(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fallback.Close, primary.Close)
	rec := recovery.New(primary, fallback, recovery.WithLogger(logger))

	registry, err := selector.NewRegistry(cfg.Models...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("building model registry: %w", err)
	}
	creds := credentialSource(logger)
	a.selector = selector.New(registry, selector.NewProviderInvoker(cfg.RateLimitRPM),
		selector.WithCredentials(creds),
		selector.WithLogger(logger))

	a.knowledge, err = openKnowledge(ctx, cfg, creds, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	enhanced := assistant.NewEnhanced(a.selector,
		assistant.WithKnowledge(a.knowledge),
		assistant.WithRecovery(rec),
		assistant.WithLogger(logger))
	legacy := assistant.NewLegacy(legacyProvider(ctx, cfg, creds, logger), cfg.LegacyModel, rec, logger)

	orchestrator := reliability.NewOrchestrator(
		reliability.WithTimeouts(cfg.Reliability.EnhancedTimeout, cfg.Reliability.FallbackTimeout),
		reliability.WithLogger(logger))
	a.chat = chat.NewService(orchestrator, rec, enhanced, legacy, logger)

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		reliability.NewCollector(orchestrator.Metrics()),
		selector.NewHealthCollector(a.selector.HealthTracker()),
	)
	return a, nil
}

// openStores opens the configured primary session store and the in-memory
// store it degrades to.
func openStores(cfg *config.Config, logger *zap.Logger) (session.Store, *session.MemoryStore, error) {
	opts := cfg.SessionOptions()
	opts.Logger = logger

	if cfg.Session.Driver == string(session.StoreTypeSQLite) {
		if err := os.MkdirAll(filepath.Dir(opts.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating session directory: %w", err)
		}
	}
	primary, err := session.NewStore(session.StoreType(cfg.Session.Driver), opts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s session store: %w", cfg.Session.Driver, err)
	}
	fallback, err := session.NewSweepingMemoryStore(opts)
	if err != nil {
		primary.Close()
		return nil, nil, fmt.Errorf("starting fallback session store: %w", err)
	}
	return primary, fallback, nil
}

// openKnowledge loads the persisted index, or indexes the seed directory
// when there is no index yet.
func openKnowledge(ctx context.Context, cfg *config.Config, keys embeddings.KeySource, logger *zap.Logger) (*knowledge.Base, error) {
	embedder, err := embeddings.New(ctx, cfg.Knowledge.EmbeddingProvider, cfg.Knowledge.EmbeddingModel, keys)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	kb, err := knowledge.New(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge base: %w", err)
	}

	if _, err := os.Stat(cfg.Knowledge.IndexDir); err == nil {
		loadErr := kb.Load(cfg.Knowledge.IndexDir)
		if loadErr == nil {
			logger.Info("knowledge index loaded", zap.String("dir", cfg.Knowledge.IndexDir), zap.Int("documents", kb.Count()))
			return kb, nil
		}
		logger.Warn("could not load knowledge index, re-indexing seeds", zap.String("dir", cfg.Knowledge.IndexDir), zap.Error(loadErr))
	}

	if _, err := os.Stat(cfg.Knowledge.Dir); err != nil {
		logger.Warn("knowledge base is empty; run `boilerbrain knowledge import`", zap.String("dir", cfg.Knowledge.Dir))
		return kb, nil
	}
	entries, err := knowledge.LoadDir(cfg.Knowledge.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge seeds: %w", err)
	}
	if err := kb.Index(ctx, entries, nil); err != nil {
		return nil, fmt.Errorf("indexing knowledge seeds: %w", err)
	}
	logger.Info("knowledge seeds indexed", zap.String("dir", cfg.Knowledge.Dir), zap.Int("documents", kb.Count()))
	return kb, nil
}

// credentialSource resolves API keys from the environment, then from
// keys stored with `boilerbrain auth set`.
func credentialSource(logger *zap.Logger) auth.Source {
	path, err := auth.DefaultPath()
	if err != nil {
		return auth.NewSource(nil)
	}
	stored, err := auth.Load(path)
	if err != nil {
		logger.Warn("ignoring stored credentials", zap.String("path", path), zap.Error(err))
		return auth.NewSource(nil)
	}
	return auth.NewSource(stored)
}

// legacyProvider creates the fallback tier's provider. A missing
// credential is not fatal: the legacy processor then only asks the
// pending question and the emergency templates cover the rest.
func legacyProvider(ctx context.Context, cfg *config.Config, creds auth.Source, logger *zap.Logger) llm.Provider {
	if cfg.LegacyProvider == "" {
		return nil
	}
	providerType := string(cfg.LegacyProvider)
	env := llm.DefaultCredentialEnv(providerType)
	key, ok := creds.Lookup(env)
	if !ok {
		logger.Warn("legacy model unavailable", zap.String("provider", providerType), zap.String("missing", env))
		return nil
	}
	p, err := llm.NewProvider(ctx, providerType, key, cfg.LegacyModel)
	if err != nil {
		logger.Warn("legacy model unavailable", zap.String("provider", providerType), zap.Error(err))
		return nil
	}
	return llm.NewRateLimitedProvider(p, cfg.RateLimitRPM)
}
