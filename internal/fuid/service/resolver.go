package service

import (
	"sort"
	"strings"
	"unicode/utf8"

	"fuid-service/internal/fuid/lexical"
	"fuid-service/internal/fuid/model"
)

// DefaultK caps results when the caller does not.
const DefaultK = 100

const (
	exactProductMin   = 80 // exclusive
	closestProductMin = 80 // inclusive
)

// Branch names the resolution path that produced a result set.
type Branch string

const (
	BranchNone            Branch = "none"
	BranchFUID            Branch = "fuid"
	BranchSelectedCompany Branch = "selected_company"
	BranchSelectedProduct Branch = "selected_product"
	BranchExactCompany    Branch = "exact_company"
	BranchExactProduct    Branch = "exact_product"
	BranchClosestCompany  Branch = "closest_company"
	BranchClosestProduct  Branch = "closest_product"
	BranchSemantic        Branch = "semantic"
	BranchLexical         Branch = "lexical"
)

// Resolve runs the tiered lookup over a store snapshot. The first branch that
// applies decides the result; an empty slice is a valid outcome.
func Resolve(st *Store, req model.SearchRequest) ([]model.Match, Branch) {
	var (
		out    []model.Match
		branch = BranchNone
	)
	st.View(func(v *View) {
		out, branch = resolve(v, req)
	})
	return out, branch
}

func resolve(v *View, req model.SearchRequest) ([]model.Match, Branch) {
	k := req.K
	if k <= 0 {
		k = DefaultK
	}
	q := strings.TrimSpace(req.Query)
	sel := strings.TrimSpace(req.SelectedItem)
	filter := req.PlatformFilter

	switch {
	case q == "":
		return nil, BranchNone

	case strings.HasPrefix(strings.ToUpper(q), "FUID"):
		recs := v.idx.byFUID[strings.ToUpper(q)]
		out := make([]model.Match, 0, len(recs))
		for _, r := range recs {
			out = append(out, model.NewMatch(model.TypeFUIDMatch, r, 100, 100))
		}
		return truncate(out, k), BranchFUID

	case req.SearchType == model.SearchCompany && sel != "":
		return truncate(companyListing(v.idx.byCompany[strings.ToLower(sel)], filter), k), BranchSelectedCompany

	case req.SearchType == model.SearchProduct && sel != "":
		return truncate(productScan(v, sel, filter, 0, false), k), BranchSelectedProduct
	}

	nq := lexical.Normalize(q)
	if utf8.RuneCountInString(nq) < 2 {
		return nil, BranchNone
	}

	if recs := v.idx.byCompanyNorm[nq]; len(recs) > 0 {
		exact := recs[len(recs)-1].Company
		return truncate(companyListing(v.idx.byCompany[strings.ToLower(exact)], filter), k), BranchExactCompany
	}
	if len(v.idx.byProductNorm[nq]) > 0 {
		return truncate(productScan(v, nq, filter, exactProductMin, false), k), BranchExactProduct
	}

	closest := v.idx.closestTerm(nq)
	if closest == "" {
		return nil, BranchNone
	}
	if recs := v.idx.byCompanyNorm[closest]; len(recs) > 0 {
		// The company branch scores the raw query while the product branch
		// below scores the closest term. Kept as-is for result compatibility.
		out := make([]model.Match, 0, len(recs))
		for _, r := range recs {
			if !platformMatches(r, filter) {
				continue
			}
			s := lexical.Ratio(q, r.Product)
			m := model.NewMatch(model.TypeClosestMatch, r, s, s)
			m.ClosestMatch = closest
			m.OriginalQuery = q
			out = append(out, m)
		}
		sortByProduct(out)
		return truncate(out, k), BranchClosestCompany
	}
	if len(v.idx.byProductNorm[closest]) > 0 {
		out := productScan(v, closest, filter, closestProductMin, true)
		for i := range out {
			out[i].Type = model.TypeClosestMatch
			out[i].ClosestMatch = closest
			out[i].OriginalQuery = q
		}
		return truncate(out, k), BranchClosestProduct
	}
	return nil, BranchNone
}

// companyListing scores every record 100 and orders by product name.
func companyListing(recs []*model.Record, filter string) []model.Match {
	out := make([]model.Match, 0, len(recs))
	for _, r := range recs {
		if platformMatches(r, filter) {
			out = append(out, model.NewMatch(model.TypeCompanyMatch, r, 100, 100))
		}
	}
	sortByProduct(out)
	return out
}

// productScan ranks every record with a product name by Ratio against
// target. Scores must exceed minScore, or reach it when inclusive is set.
func productScan(v *View, target, filter string, minScore float64, inclusive bool) []model.Match {
	var out []model.Match
	for _, r := range v.doc.FUIDMappings.Records() {
		if r.Product == "" || !platformMatches(r, filter) {
			continue
		}
		s := lexical.Ratio(target, r.Product)
		if s < minScore || (!inclusive && s == minScore) {
			continue
		}
		out = append(out, model.NewMatch(model.TypeProductMatch, r, s, s))
	}
	sortByScore(out)
	return out
}

func platformMatches(r *model.Record, filter string) bool {
	if filter == "" || filter == model.PlatformAll {
		return true
	}
	return strings.EqualFold(r.Platform, filter)
}

func sortByProduct(ms []model.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return strings.ToLower(ms[i].Product) < strings.ToLower(ms[j].Product)
	})
}

func sortByScore(ms []model.Match) {
	sort.SliceStable(ms, func(i, j int) bool {
		return ms[i].RelevanceScore > ms[j].RelevanceScore
	})
}

func truncate(ms []model.Match, k int) []model.Match {
	if len(ms) > k {
		return ms[:k]
	}
	return ms
}
