package semantic

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fuid-service/internal/fuid/lexical"
)

// Weights blend cosine similarity with the lexical ratio.
type Weights struct {
	Embedding float64
	Fuzzy     float64
}

var DefaultWeights = Weights{Embedding: 0.7, Fuzzy: 0.3}

type Option func(*Engine)

func WithWeights(w Weights) Option { return func(e *Engine) { e.weights = w } }

func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(e *Engine) { e.log = l } }

// Engine owns one embedding index. It is safe for concurrent use; a Build
// may run while searches read the previous vectors.
type Engine struct {
	embedder  Embedder
	index     VectorIndex
	weights   Weights
	batchSize int
	workers   int
	log       zerolog.Logger

	mu          sync.RWMutex
	ready       bool
	fingerprint uint64
	builtAt     time.Time
	products    int
	companies   int
}

func NewEngine(embedder Embedder, index VectorIndex, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	e := &Engine{
		embedder:  embedder,
		index:     index,
		weights:   DefaultWeights,
		batchSize: 64,
		workers:   4,
		log:       zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Status reports index freshness against a corpus.
type Status struct {
	Ready     bool       `json:"ready"`
	Stale     bool       `json:"stale"`
	Products  int        `json:"products"`
	Companies int        `json:"companies"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
}

// Fingerprint hashes the sorted names of both kinds.
func Fingerprint(c Corpus) uint64 {
	h := xxhash.New()
	for _, k := range []Kind{KindProduct, KindCompany} {
		names := append([]string(nil), c.names(k)...)
		sort.Strings(names)
		_, _ = h.WriteString(string(k))
		for _, n := range names {
			_, _ = h.WriteString("\x00")
			_, _ = h.WriteString(n)
		}
		_, _ = h.WriteString("\x01")
	}
	return h.Sum64()
}

func (e *Engine) Available() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}

func (e *Engine) Status(c Corpus) Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := Status{
		Ready:     e.ready,
		Stale:     !e.ready || e.fingerprint != Fingerprint(c),
		Products:  e.products,
		Companies: e.companies,
	}
	if !e.builtAt.IsZero() {
		t := e.builtAt
		st.BuiltAt = &t
	}
	return st
}

// AdoptExisting marks the engine ready when the vector store already holds points
// from an earlier run. The index stays stale until the next Build.
func (e *Engine) AdoptExisting(ctx context.Context) error {
	n, err := e.index.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		e.mu.Lock()
		e.ready = true
		e.mu.Unlock()
	}
	return nil
}

// Build embeds every distinct name in c and upserts the vectors. Batches are
// embedded concurrently, bounded by the worker count.
func (e *Engine) Build(ctx context.Context, c Corpus) (Status, error) {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, kind := range []Kind{KindProduct, KindCompany} {
		names := dedupe(c.names(kind))
		for lo := 0; lo < len(names); lo += e.batchSize {
			batch := names[lo:min(lo+e.batchSize, len(names))]
			g.Go(func() error {
				return e.embedBatch(gctx, kind, batch)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return e.Status(c), fmt.Errorf("build semantic index: %w", err)
	}

	e.mu.Lock()
	e.ready = true
	e.fingerprint = Fingerprint(c)
	e.builtAt = time.Now().UTC()
	e.products = len(dedupe(c.Products))
	e.companies = len(dedupe(c.Companies))
	e.mu.Unlock()

	e.log.Info().
		Int("products", len(c.Products)).
		Int("companies", len(c.Companies)).
		Dur("elapsed", time.Since(start)).
		Msg("semantic index built")
	return e.Status(c), nil
}

func (e *Engine) embedBatch(ctx context.Context, kind Kind, names []string) error {
	vecs, err := e.embedder.EmbedBatch(ctx, names)
	if err != nil {
		return fmt.Errorf("embed %s batch: %w", kind, err)
	}
	if len(vecs) != len(names) {
		return fmt.Errorf("embed %s batch: got %d vectors for %d names", kind, len(vecs), len(names))
	}
	points := make([]Point, len(names))
	for i, n := range names {
		points[i] = Point{Kind: kind, Name: n, Vector: vecs[i]}
	}
	return e.index.Upsert(ctx, points)
}

// HybridSearch returns up to topK names of the given kind ordered by
// Embedding*cosine + Fuzzy*ratio/100, dropping those below threshold.
func (e *Engine) HybridSearch(ctx context.Context, query string, kind Kind, threshold float64, topK int) ([]Candidate, error) {
	if !e.Available() {
		return nil, ErrIndexNotReady
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vec) == 0 {
		return nil, ErrEmptyEmbedding
	}
	hits, err := e.index.Search(ctx, kind, vec, topK)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		fuzzy := lexical.Ratio(query, h.Name)
		score := e.weights.Embedding*h.Score + e.weights.Fuzzy*fuzzy/100
		if score < threshold {
			continue
		}
		out = append(out, Candidate{
			Name:                h.Name,
			EmbeddingSimilarity: h.Score,
			FuzzySimilarity:     fuzzy,
			HybridScore:         score,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].HybridScore > out[j].HybridScore })
	return out, nil
}

func (e *Engine) Close() error { return e.index.Close() }

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
