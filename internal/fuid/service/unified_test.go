package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuid-service/internal/fuid/model"
	"fuid-service/internal/semantic"
)

type fakeMatcher struct {
	available bool
	cands     []semantic.Candidate
	err       error
	panicMsg  string
	block     bool

	gotTopK int
	gotKind semantic.Kind
}

func (m *fakeMatcher) Available() bool { return m.available }

func (m *fakeMatcher) HybridSearch(ctx context.Context, _ string, kind semantic.Kind, _ float64, topK int) ([]semantic.Candidate, error) {
	m.gotTopK, m.gotKind = topK, kind
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.cands, m.err
}

func lexicalOnly(t *testing.T, st *Store, req model.UnifiedRequest) []model.Match {
	t.Helper()
	got, branch := NewUnified(st, nil, time.Second, zerolog.Nop()).Resolve(context.Background(), req)
	assert.Equal(t, BranchLexical, branch)
	return got
}

func TestUnifiedLexicalFallback(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	got := lexicalOnly(t, st, model.UnifiedRequest{Query: "widget"})
	require.Equal(t, []string{"widget", "widget pro", "gadget", "tps report"}, productsOf(got))
	assert.Equal(t, 1.0, got[0].RelevanceScore)
	assert.Equal(t, 0.75, got[1].FuzzySimilarity)
	assert.Nil(t, got[0].EmbeddingSimilarity)
	for _, m := range got {
		assert.Equal(t, model.TypeProductMatch, m.Type)
		assert.Greater(t, m.RelevanceScore, 0.1)
	}

	got = lexicalOnly(t, st, model.UnifiedRequest{Query: "widget", K: 1, PlatformFilter: "azure"})
	assert.Equal(t, []string{"gadget"}, productsOf(got))
}

func TestUnifiedFallbackMatchesLexical(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	req := model.UnifiedRequest{Query: "widget", K: 3, PlatformFilter: model.PlatformAll}
	want := lexicalOnly(t, st, req)

	matchers := map[string]*fakeMatcher{
		"unavailable": {available: false, cands: []semantic.Candidate{{Name: "gadget", HybridScore: 1}}},
		"error":       {available: true, err: errors.New("connection refused")},
		"panic":       {available: true, panicMsg: "nil map"},
		"timeout":     {available: true, block: true},
		"empty":       {available: true},
	}
	for name, m := range matchers {
		t.Run(name, func(t *testing.T) {
			u := NewUnified(st, m, 20*time.Millisecond, zerolog.Nop())
			var got []model.Match
			require.NotPanics(t, func() {
				var branch Branch
				got, branch = u.Resolve(context.Background(), req)
				assert.Equal(t, BranchLexical, branch)
			})
			assert.Equal(t, want, got)
		})
	}
}

func TestUnifiedSemantic(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	m := &fakeMatcher{available: true, cands: []semantic.Candidate{
		{Name: "WIDGET PRO", EmbeddingSimilarity: 0.8, FuzzySimilarity: 75, HybridScore: 0.785},
		{Name: "widget", EmbeddingSimilarity: 0.9, FuzzySimilarity: 100, HybridScore: 0.93},
		{Name: "widget", EmbeddingSimilarity: 0.9, FuzzySimilarity: 100, HybridScore: 0.93},
		{Name: "unknown", EmbeddingSimilarity: 0.5, FuzzySimilarity: 10, HybridScore: 0.38},
	}}
	u := NewUnified(st, m, time.Second, zerolog.Nop())

	got, branch := u.Resolve(context.Background(), model.UnifiedRequest{Query: "widget", K: 5})
	assert.Equal(t, BranchSemantic, branch)
	assert.Equal(t, 15, m.gotTopK)
	assert.Equal(t, semantic.KindProduct, m.gotKind)
	require.Equal(t, []string{"FUID-GLOBE:00002-0003-00", "FUID-ACME:00001-0001-2023"}, fuidsOf(got))
	assert.Equal(t, 0.93, got[0].RelevanceScore)
	assert.Equal(t, 1.0, got[0].FuzzySimilarity)
	require.NotNil(t, got[0].EmbeddingSimilarity)
	assert.Equal(t, 0.9, *got[0].EmbeddingSimilarity)

	_, _ = u.Resolve(context.Background(), model.UnifiedRequest{Query: "widget", K: 500})
	assert.Equal(t, 300, m.gotTopK)

	// candidates that survive nowhere after filtering are a valid empty answer
	got, branch = u.Resolve(context.Background(), model.UnifiedRequest{Query: "widget", PlatformFilter: "GCP"})
	assert.Equal(t, BranchSemantic, branch)
	assert.Empty(t, got)
}

func TestUnifiedEmptyQuery(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	got, branch := NewUnified(st, nil, 0, zerolog.Nop()).Resolve(context.Background(), model.UnifiedRequest{Query: "  "})
	assert.Empty(t, got)
	assert.Equal(t, BranchNone, branch)
}
