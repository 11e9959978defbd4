package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"fuid-service/internal/config"
	"fuid-service/internal/extract"
	"fuid-service/internal/fuid/service"
	"fuid-service/internal/semantic"
)

const defaultOllamaEmbedModel = "nomic-embed-text"

// Deps holds what commands need; closers run in reverse on exit.
type Deps struct {
	Config  config.Config
	Log     zerolog.Logger
	Service *service.Service
	Engine  *semantic.Engine

	closers []func() error
}

func (d *Deps) Close() error {
	var err error
	for i := len(d.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, d.closers[i]())
	}
	return err
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(globalConfig)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if globalDataFile != "" {
		cfg.DataFile = globalDataFile
	}
	if globalLogLevel != "" {
		cfg.LogLevel = globalLogLevel
	}
	return cfg, nil
}

// withDeps loads config and builds dependencies, then calls fn. Cleanup is
// handled here.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d, err := buildDeps(ctx, cfg, config.SetupLogger(cfg))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			d.Log.Warn().Err(cerr).Msg("closing dependencies")
		}
	}()
	return fn(d)
}

func buildDeps(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Deps, error) {
	d := &Deps{Config: cfg, Log: logger}

	store, err := service.OpenStore(cfg.DataFile, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithDefaultK(cfg.DefaultK),
		service.WithSemanticTimeout(cfg.SemanticTimeout),
	}

	if cfg.SemanticEnabled() {
		engine, err := buildEngine(cfg, logger, d)
		if err != nil {
			_ = d.Close()
			return nil, err
		}
		if err := engine.AdoptExisting(ctx); err != nil {
			logger.Warn().Err(err).Msg("reading existing vector index failed; semantic search waits for a build")
		}
		d.Engine = engine
		opts = append(opts, service.WithMatcher(engine), service.WithIndexer(engine))
	}

	if cfg.Extractor.Enabled {
		x, err := extract.NewOllama(cfg.Extractor.Host, cfg.Extractor.Model, cfg.Extractor.Timeout, logger)
		if err != nil {
			_ = d.Close()
			return nil, fmt.Errorf("creating version extractor: %w", err)
		}
		opts = append(opts, service.WithExtractor(x))
	} else {
		opts = append(opts, service.WithExtractor(extract.Disabled{}))
	}

	d.Service = service.New(store, opts...)
	return d, nil
}

func buildEngine(cfg config.Config, logger zerolog.Logger, d *Deps) (*semantic.Engine, error) {
	var (
		emb semantic.Embedder
		err error
	)
	switch cfg.Embedder.Provider {
	case "openai":
		emb, err = semantic.NewOpenAIEmbedder(cfg.Embedder.APIKey, cfg.Embedder.Model)
	default:
		model := cfg.Embedder.Model
		if model == "" {
			model = defaultOllamaEmbedModel
		}
		emb, err = semantic.NewOllamaEmbedder(cfg.Embedder.Host, model)
	}
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	db, err := semantic.OpenCache(cfg.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening embedding cache: %w", err)
	}
	d.closers = append(d.closers, db.Close)
	emb = semantic.NewCachedEmbedder(emb, cfg.Embedder.Provider+"/"+cfg.Embedder.Model, db)

	var index semantic.VectorIndex
	switch cfg.VectorStore {
	case "qdrant":
		q, err := semantic.NewQdrantIndex(semantic.QdrantConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Qdrant.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("creating qdrant index: %w", err)
		}
		index = q
	default:
		index = semantic.NewMemoryIndex()
	}

	engine, err := semantic.NewEngine(emb, index,
		semantic.WithWeights(semantic.Weights{Embedding: cfg.Weights.Embedding, Fuzzy: cfg.Weights.Fuzzy}),
		semantic.WithLogger(logger),
	)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("creating semantic engine: %w", err)
	}
	d.closers = append(d.closers, engine.Close)
	return engine, nil
}
