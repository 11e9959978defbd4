package service

import (
	"sort"
	"strings"

	"fuid-service/internal/fuid/lexical"
	"fuid-service/internal/fuid/model"
)

type tripleKey struct {
	company, product, version string
}

// Index is the in-memory lookup over FUID records, kept in step with the
// table on every insert so the resolver and the reconciliation path never
// scan the whole document.
type Index struct {
	byTriple map[tripleKey]string
	byFUID   map[string][]*model.Record // upper(fuid)

	byCompany     map[string][]*model.Record // lower(company)
	byProduct     map[string][]*model.Record // lower(product)
	byCompanyNorm map[string][]*model.Record // Normalize(company)
	byProductNorm map[string][]*model.Record // Normalize(product)

	// ids embedded in FUID records, first record wins
	companyIDs map[string]string
	productIDs map[string]map[string]string

	terms       map[string]struct{} // lower(company) and lower(product)
	sortedTerms []string
}

func buildIndex(records []*model.Record) *Index {
	idx := &Index{
		byTriple:      make(map[tripleKey]string),
		byFUID:        make(map[string][]*model.Record),
		byCompany:     make(map[string][]*model.Record),
		byProduct:     make(map[string][]*model.Record),
		byCompanyNorm: make(map[string][]*model.Record),
		byProductNorm: make(map[string][]*model.Record),
		companyIDs:    make(map[string]string),
		productIDs:    make(map[string]map[string]string),
		terms:         make(map[string]struct{}),
	}
	for _, r := range records {
		idx.add(r)
	}
	return idx
}

func (idx *Index) add(r *model.Record) {
	key := tripleKey{r.Company, r.Product, r.Version}
	if _, ok := idx.byTriple[key]; !ok {
		idx.byTriple[key] = r.FUID
	}
	up := strings.ToUpper(r.FUID)
	idx.byFUID[up] = append(idx.byFUID[up], r)

	lc, lp := strings.ToLower(r.Company), strings.ToLower(r.Product)
	idx.byCompany[lc] = append(idx.byCompany[lc], r)
	idx.byProduct[lp] = append(idx.byProduct[lp], r)
	nc, np := lexical.Normalize(r.Company), lexical.Normalize(r.Product)
	idx.byCompanyNorm[nc] = append(idx.byCompanyNorm[nc], r)
	idx.byProductNorm[np] = append(idx.byProductNorm[np], r)

	if r.CompanyID != "" {
		if _, ok := idx.companyIDs[r.Company]; !ok {
			idx.companyIDs[r.Company] = r.CompanyID
		}
	}
	if r.ProductID != "" {
		products, ok := idx.productIDs[r.Company]
		if !ok {
			products = make(map[string]string)
			idx.productIDs[r.Company] = products
		}
		if _, ok := products[r.Product]; !ok {
			products[r.Product] = r.ProductID
		}
	}

	for _, term := range []string{lc, lp} {
		if term == "" {
			continue
		}
		if _, ok := idx.terms[term]; !ok {
			idx.terms[term] = struct{}{}
			i := sort.SearchStrings(idx.sortedTerms, term)
			idx.sortedTerms = append(idx.sortedTerms, "")
			copy(idx.sortedTerms[i+1:], idx.sortedTerms[i:])
			idx.sortedTerms[i] = term
		}
	}
}

// closestTerm returns the company or product term with the highest Ratio to
// query. Terms are visited in lexical order and only a strictly better score
// replaces the current best, so ties go to the smallest term. A best score of
// zero yields "".
func (idx *Index) closestTerm(query string) string {
	best, bestScore := "", 0.0
	for _, t := range idx.sortedTerms {
		if s := lexical.Ratio(query, t); s > bestScore {
			best, bestScore = t, s
		}
	}
	return best
}

func (idx *Index) names() (companies, products []string) {
	for name := range idx.byCompany {
		if name != "" {
			companies = append(companies, idx.byCompany[name][0].Company)
		}
	}
	for name := range idx.byProduct {
		if name != "" {
			products = append(products, idx.byProduct[name][0].Product)
		}
	}
	sort.Strings(companies)
	sort.Strings(products)
	return companies, products
}
