package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuid-service/internal/fuid/model"
)

const catalogDoc = `{
  "fuid_mappings": {
    "FUID-ACME:00001-0001-2023": {"company":"acme","company_id":"ACME:00001","product":"widget pro","product_id":"0001","version":"2023","version_id":"2023","platform":"AWS"},
    "FUID-ACME:00001-0002-2023": {"company":"acme","company_id":"ACME:00001","product":"gadget","product_id":"0002","version":"2023","version_id":"2023","platform":"Azure"},
    "FUID-GLOBE:00002-0003-00": {"company":"globex","company_id":"GLOBE:00002","product":"widget","product_id":"0003","version":"00","version_id":"00","platform":"aws"},
    "FUID-INITE:00003-0004-1.0": {"company":"initech","company_id":"INITE:00003","product":"tps report","product_id":"0004","version":"1.0","version_id":"1.0","platform":"GCP"}
  }
}`

func fuidsOf(ms []model.Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.FUID)
	}
	return out
}

func productsOf(ms []model.Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Product)
	}
	return out
}

func TestResolveExactFUID(t *testing.T) {
	st := newTestStore(t, catalogDoc)

	got, branch := Resolve(st, model.SearchRequest{Query: "fuid-acme:00001-0001-2023", PlatformFilter: "GCP"})
	assert.Equal(t, BranchFUID, branch)
	require.Len(t, got, 1)
	assert.Equal(t, "FUID-ACME:00001-0001-2023", got[0].FUID)
	assert.Equal(t, model.TypeFUIDMatch, got[0].Type)
	assert.Equal(t, 100.0, got[0].RelevanceScore)
	assert.Equal(t, 100.0, got[0].FuzzySimilarity)

	got, branch = Resolve(st, model.SearchRequest{Query: "FUID-NOPE"})
	assert.Equal(t, BranchFUID, branch)
	assert.Empty(t, got)
}

func TestResolveSelectedCompany(t *testing.T) {
	st := newTestStore(t, catalogDoc)

	got, branch := Resolve(st, model.SearchRequest{Query: "ac", SearchType: model.SearchCompany, SelectedItem: "ACME"})
	assert.Equal(t, BranchSelectedCompany, branch)
	assert.Equal(t, []string{"gadget", "widget pro"}, productsOf(got))
	for _, m := range got {
		assert.Equal(t, model.TypeCompanyMatch, m.Type)
		assert.Equal(t, 100.0, m.RelevanceScore)
	}

	got, _ = Resolve(st, model.SearchRequest{Query: "ac", SearchType: model.SearchCompany, SelectedItem: "acme", PlatformFilter: "aws"})
	assert.Equal(t, []string{"FUID-ACME:00001-0001-2023"}, fuidsOf(got))
}

func TestResolveSelectedProduct(t *testing.T) {
	st := newTestStore(t, catalogDoc)

	got, branch := Resolve(st, model.SearchRequest{Query: "wid", SearchType: model.SearchProduct, SelectedItem: "widget"})
	assert.Equal(t, BranchSelectedProduct, branch)
	assert.Equal(t, []string{"widget", "widget pro", "gadget", "tps report"}, productsOf(got))
	assert.Equal(t, 100.0, got[0].RelevanceScore)
	assert.Equal(t, 75.0, got[1].RelevanceScore)
	assert.Equal(t, 67.0, got[2].RelevanceScore)
	assert.Equal(t, 25.0, got[3].RelevanceScore)

	got, _ = Resolve(st, model.SearchRequest{Query: "wid", SearchType: model.SearchProduct, SelectedItem: "widget", K: 2})
	assert.Len(t, got, 2)
}

func TestResolveExactCompany(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	got, branch := Resolve(st, model.SearchRequest{Query: "  ACME!! "})
	assert.Equal(t, BranchExactCompany, branch)
	assert.Equal(t, []string{"gadget", "widget pro"}, productsOf(got))
	assert.Equal(t, model.TypeCompanyMatch, got[0].Type)
}

func TestResolveExactProduct(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	got, branch := Resolve(st, model.SearchRequest{Query: "Widget"})
	assert.Equal(t, BranchExactProduct, branch)
	// widget pro scores 75 and falls under the exact-product cut
	assert.Equal(t, []string{"FUID-GLOBE:00002-0003-00"}, fuidsOf(got))
	assert.Equal(t, model.TypeProductMatch, got[0].Type)
}

func TestResolveClosestCompany(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	got, branch := Resolve(st, model.SearchRequest{Query: "Acmee"})
	assert.Equal(t, BranchClosestCompany, branch)
	require.Equal(t, []string{"gadget", "widget pro"}, productsOf(got))
	assert.Equal(t, model.TypeClosestMatch, got[0].Type)
	assert.Equal(t, "acme", got[0].ClosestMatch)
	assert.Equal(t, "Acmee", got[0].OriginalQuery)
	assert.Equal(t, 36.0, got[0].RelevanceScore)
	assert.Equal(t, 13.0, got[1].RelevanceScore)
}

func TestResolveClosestProduct(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	got, branch := Resolve(st, model.SearchRequest{Query: "TPS reports"})
	assert.Equal(t, BranchClosestProduct, branch)
	require.Len(t, got, 1)
	assert.Equal(t, "tps report", got[0].Product)
	assert.Equal(t, model.TypeClosestMatch, got[0].Type)
	assert.Equal(t, "tps report", got[0].ClosestMatch)
	assert.Equal(t, 100.0, got[0].RelevanceScore)
}

func TestResolveRejectsShortQueries(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	for _, q := range []string{"", "   ", "a", "!!", "é"} {
		got, branch := Resolve(st, model.SearchRequest{Query: q})
		assert.Empty(t, got, q)
		assert.Equal(t, BranchNone, branch, q)
	}
}

func TestResolveEmptyStore(t *testing.T) {
	st := newTestStore(t, "")
	got, branch := Resolve(st, model.SearchRequest{Query: "widget"})
	assert.Empty(t, got)
	assert.Equal(t, BranchNone, branch)
}

func TestResolvePlatformFilter(t *testing.T) {
	st := newTestStore(t, catalogDoc)
	reqs := []model.SearchRequest{
		{Query: "acme"},
		{Query: "x", SearchType: model.SearchProduct, SelectedItem: "widget"},
		{Query: "x", SearchType: model.SearchCompany, SelectedItem: "globex"},
		{Query: "acmee"},
		{Query: "widget"},
	}
	for _, req := range reqs {
		req.PlatformFilter = "AWS"
		got, _ := Resolve(st, req)
		for _, m := range got {
			assert.True(t, strings.EqualFold(m.Platform, "aws"), "%s returned platform %s", req.Query, m.Platform)
		}
	}

	all, _ := Resolve(st, model.SearchRequest{Query: "x", SearchType: model.SearchProduct, SelectedItem: "widget", PlatformFilter: model.PlatformAll})
	platforms := map[string]bool{}
	for _, m := range all {
		platforms[strings.ToLower(m.Platform)] = true
	}
	assert.Len(t, platforms, 3)
}

func TestClosestTermTieBreak(t *testing.T) {
	idx := buildIndex([]*model.Record{
		{FUID: "F1", Company: "abd", Product: "x1"},
		{FUID: "F2", Company: "abc", Product: "x2"},
	})
	// "abx" scores 67 against both companies; the smaller term wins
	assert.Equal(t, "abc", idx.closestTerm("abx"))
	assert.Equal(t, "", idx.closestTerm("zzz"))
}
