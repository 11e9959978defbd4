package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"fuid-service/internal/fuid/lexical"
	"fuid-service/internal/fuid/model"
	"fuid-service/internal/metrics"
	"fuid-service/internal/semantic"
)

// Matcher is the semantic collaborator consumed by UnifiedResolve.
type Matcher interface {
	Available() bool
	HybridSearch(ctx context.Context, query string, kind semantic.Kind, threshold float64, topK int) ([]semantic.Candidate, error)
}

const (
	maxSemanticCandidates = 300
	lexicalFallbackMin    = 0.1 // exclusive
)

// Unified resolves a query across all products, preferring semantic ranking
// and falling back to a lexical scan whenever the matcher cannot answer.
type Unified struct {
	store   *Store
	matcher Matcher
	timeout time.Duration
	log     zerolog.Logger
}

func NewUnified(store *Store, matcher Matcher, timeout time.Duration, logger zerolog.Logger) *Unified {
	return &Unified{store: store, matcher: matcher, timeout: timeout, log: logger}
}

// Resolve never fails; semantic errors and panics degrade to the lexical path.
func (u *Unified) Resolve(ctx context.Context, req model.UnifiedRequest) ([]model.Match, Branch) {
	k := req.K
	if k <= 0 {
		k = DefaultK
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return nil, BranchNone
	}

	if u.matcher != nil && u.matcher.Available() {
		start := time.Now()
		cands, err := u.semanticCandidates(ctx, q, min(3*k, maxSemanticCandidates))
		metrics.ObserveSemanticLatency(time.Since(start))
		switch {
		case err != nil:
			u.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("semantic search failed, using lexical fallback")
			metrics.ObserveFallback("error")
		case len(cands) == 0:
			metrics.ObserveFallback("empty")
		default:
			return u.expand(cands, req.PlatformFilter, k), BranchSemantic
		}
	} else {
		metrics.ObserveFallback("unavailable")
	}
	return u.lexical(q, req.PlatformFilter, k), BranchLexical
}

func (u *Unified) semanticCandidates(ctx context.Context, q string, topK int) (cands []semantic.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("semantic matcher panic: %v", r)
		}
	}()
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}
	return u.matcher.HybridSearch(ctx, q, semantic.KindProduct, 0, topK)
}

func (u *Unified) expand(cands []semantic.Candidate, filter string, k int) []model.Match {
	var out []model.Match
	seen := make(map[string]struct{}, len(cands))
	u.store.View(func(v *View) {
		for _, c := range cands {
			name := strings.ToLower(c.Name)
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			for _, r := range v.idx.byProduct[name] {
				if !platformMatches(r, filter) {
					continue
				}
				m := model.NewMatch(model.TypeProductMatch, r, c.HybridScore, c.FuzzySimilarity/100)
				sim := c.EmbeddingSimilarity
				m.EmbeddingSimilarity = &sim
				out = append(out, m)
			}
		}
	})
	sortByScore(out)
	return truncate(out, k)
}

// lexical is the fallback scan: every record with a usable product name
// scored by Similarity, kept above lexicalFallbackMin.
func (u *Unified) lexical(q, filter string, k int) []model.Match {
	var out []model.Match
	u.store.View(func(v *View) {
		for _, r := range v.doc.FUIDMappings.Records() {
			if utf8.RuneCountInString(strings.TrimSpace(r.Product)) < 2 || !platformMatches(r, filter) {
				continue
			}
			s := lexical.Similarity(q, r.Product)
			if s <= lexicalFallbackMin {
				continue
			}
			out = append(out, model.NewMatch(model.TypeProductMatch, r, s, s))
		}
	})
	sortByScore(out)
	return truncate(out, k)
}
