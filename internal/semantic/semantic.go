// Package semantic ranks names by embedding similarity blended with the
// lexical ratio. Embedding providers and vector stores are plugged in
// through the Embedder and VectorIndex ports.
package semantic

import (
	"context"
	"errors"
	"math"
)

// Kind selects which name space a vector belongs to.
type Kind string

const (
	KindProduct Kind = "product"
	KindCompany Kind = "company"
)

var (
	ErrIndexNotReady    = errors.New("semantic index not built")
	ErrEmbedderRequired = errors.New("embedder is required")
	ErrIndexRequired    = errors.New("vector index is required")
	ErrEmptyEmbedding   = errors.New("embedder returned no vector")
)

// Candidate is one hybrid search hit. FuzzySimilarity is on the 0..100
// scale, the other scores on 0..1.
type Candidate struct {
	Name                string  `json:"name"`
	EmbeddingSimilarity float64 `json:"embedding_similarity"`
	FuzzySimilarity     float64 `json:"fuzzy_similarity"`
	HybridScore         float64 `json:"hybrid_score"`
}

// Corpus is the set of names the index is built from.
type Corpus struct {
	Products  []string
	Companies []string
}

func (c Corpus) names(k Kind) []string {
	if k == KindCompany {
		return c.Companies
	}
	return c.Products
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Point struct {
	Kind   Kind
	Name   string
	Vector []float32
}

type Hit struct {
	Name  string
	Score float64
}

// VectorIndex stores name vectors and returns the nearest names by cosine
// similarity, best first.
type VectorIndex interface {
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, kind Kind, vector []float32, limit int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// CosineSimilarity returns 0 when either vector has zero norm or the lengths
// differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
