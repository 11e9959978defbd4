package semantic

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force VectorIndex for small corpora and tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[Kind]map[string][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[Kind]map[string][]float32)}
}

func (m *MemoryIndex) Upsert(_ context.Context, points []Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		byName, ok := m.vectors[p.Kind]
		if !ok {
			byName = make(map[string][]float32)
			m.vectors[p.Kind] = byName
		}
		byName[p.Name] = p.Vector
	}
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, kind Kind, vector []float32, limit int) ([]Hit, error) {
	m.mu.RLock()
	hits := make([]Hit, 0, len(m.vectors[kind]))
	for name, v := range m.vectors[kind] {
		hits = append(hits, Hit{Name: name, Score: CosineSimilarity(vector, v)})
	}
	m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *MemoryIndex) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, byName := range m.vectors {
		n += len(byName)
	}
	return n, nil
}

func (m *MemoryIndex) Close() error { return nil }
