package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fuid-service/internal/fuid/model"
	"fuid-service/internal/metrics"
	"fuid-service/internal/semantic"
)

// Indexer builds and reports on the semantic index.
type Indexer interface {
	Build(ctx context.Context, c semantic.Corpus) (semantic.Status, error)
	Status(c semantic.Corpus) semantic.Status
}

// Service is the entry point used by the HTTP handlers and the CLI.
type Service struct {
	store     *Store
	matcher   Matcher
	indexer   Indexer
	extractor VersionExtractor
	timeout   time.Duration
	defaultK  int
	log       zerolog.Logger
	now       func() time.Time

	unified *Unified
}

type Option func(*Service)

func WithMatcher(m Matcher) Option { return func(s *Service) { s.matcher = m } }

func WithIndexer(ix Indexer) Option { return func(s *Service) { s.indexer = ix } }

func WithExtractor(x VersionExtractor) Option { return func(s *Service) { s.extractor = x } }

func WithSemanticTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func WithDefaultK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.defaultK = k
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func New(store *Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		timeout:  5 * time.Second,
		defaultK: DefaultK,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.unified = NewUnified(store, s.matcher, s.timeout, s.log)
	return s
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Generate(req model.GenerateRequest) (model.GenerateResult, error) {
	res, err := Generate(s.store, req)
	if err != nil {
		return res, err
	}
	metrics.ObserveGenerate(string(res.FUIDStatus))
	if res.IsNew() {
		s.log.Info().
			Str("fuid", res.FUID).
			Str("company", res.Company.Normalized).
			Str("product", res.Product.Normalized).
			Msg("fuid created")
	}
	return res, nil
}

func (s *Service) Search(req model.SearchRequest) []model.Match {
	if req.K <= 0 {
		req.K = s.defaultK
	}
	out, branch := Resolve(s.store, req)
	metrics.ObserveSearch(string(branch))
	s.log.Debug().
		Str("query", req.Query).
		Str("branch", string(branch)).
		Int("results", len(out)).
		Msg("search")
	return out
}

func (s *Service) UnifiedSearch(ctx context.Context, req model.UnifiedRequest) []model.Match {
	if req.K <= 0 {
		req.K = s.defaultK
	}
	out, branch := s.unified.Resolve(ctx, req)
	metrics.ObserveSearch(string(branch))
	return out
}

// ExtractVersion returns "00" when no extractor is configured.
func (s *Service) ExtractVersion(ctx context.Context, product string) (string, error) {
	if s.extractor == nil || strings.TrimSpace(product) == "" {
		return DefaultVersion, nil
	}
	return s.extractor.ExtractVersion(ctx, product)
}

func (s *Service) Stats() model.Stats { return s.store.Stats() }

func (s *Service) Document() (*model.Document, error) { return s.store.Document() }

func (s *Service) EmbeddingStatus() (semantic.Status, error) {
	if s.indexer == nil {
		return semantic.Status{}, ErrSemanticDisabled
	}
	return s.indexer.Status(s.store.Corpus()), nil
}

// BuildEmbeddings (re)embeds every company and product name in the store.
func (s *Service) BuildEmbeddings(ctx context.Context) (semantic.Status, error) {
	if s.indexer == nil {
		return semantic.Status{}, ErrSemanticDisabled
	}
	corpus := s.store.Corpus()
	st, err := s.indexer.Build(ctx, corpus)
	if err != nil {
		return st, err
	}
	metrics.AddEmbedded(len(corpus.Products) + len(corpus.Companies))
	return st, nil
}
