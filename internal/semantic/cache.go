package semantic

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// CachedEmbedder memoizes vectors in badger, keyed by model and text, so an
// index rebuild only pays for names it has not seen.
type CachedEmbedder struct {
	inner Embedder
	model string
	db    *badger.DB
}

type badgerLogger struct{ log zerolog.Logger }

func (l badgerLogger) Errorf(f string, a ...any)   { l.log.Error().Msgf(f, a...) }
func (l badgerLogger) Warningf(f string, a ...any) { l.log.Warn().Msgf(f, a...) }
func (l badgerLogger) Infof(f string, a ...any)    { l.log.Debug().Msgf(f, a...) }
func (l badgerLogger) Debugf(f string, a ...any)   { l.log.Trace().Msgf(f, a...) }

// OpenCache opens the badger store under dir; an empty dir keeps it in
// memory.
func OpenCache(dir string, logger zerolog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = badgerLogger{log: logger.With().Str("component", "embedding-cache").Logger()}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return db, nil
}

func NewCachedEmbedder(inner Embedder, model string, db *badger.DB) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, model: model, db: db}
}

func (c *CachedEmbedder) key(text string) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(c.model+"\x00"+text))
	return append([]byte("emb:"), b[:]...)
}

func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

func (c *CachedEmbedder) get(text string) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := decodeVector(val)
			vec = v
			return err
		})
	})
	return vec, err == nil && len(vec) > 0
}

func (c *CachedEmbedder) put(texts []string, vecs [][]float32) error {
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for i, t := range texts {
		if err := wb.Set(c.key(t), encodeVector(vecs[i])); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.get(text); ok {
		return v, nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if err := c.put([]string{text}, [][]float32{v}); err != nil {
		return nil, fmt.Errorf("cache embedding: %w", err)
	}
	return v, nil
}

func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var (
		missText []string
		missPos  []int
	)
	for i, t := range texts {
		if v, ok := c.get(t); ok {
			out[i] = v
			continue
		}
		missText = append(missText, t)
		missPos = append(missPos, i)
	}
	if len(missText) == 0 {
		return out, nil
	}
	vecs, err := c.inner.EmbedBatch(ctx, missText)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missText) {
		return nil, errors.New("embedder returned a short batch")
	}
	for i, pos := range missPos {
		out[pos] = vecs[i]
	}
	if err := c.put(missText, vecs); err != nil {
		return nil, fmt.Errorf("cache embeddings: %w", err)
	}
	return out, nil
}
