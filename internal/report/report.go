// Package report summarizes FUID-labelled marketplace listings: FUIDs seen
// more than once, and per-marketplace coverage.
package report

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"fuid-service/internal/fileio"
	"fuid-service/internal/fuid/model"
	"fuid-service/internal/fuid/service"
)

const unknownPlatform = "Unknown"

// Entry is one listing row.
type Entry struct {
	FUID      string `json:"fuid"`
	Platform  string `json:"platform"`
	Company   string `json:"company"`
	CompanyID string `json:"company_id"`
	Product   string `json:"product"`
	Version   string `json:"version"`
}

// Column alternatives for listing exports.
const (
	colFUID      = "fuid|flywl_unique_id|flywl_id"
	colPlatform  = "platform|marketplace"
	colCompany   = "normalised_company_name|company|companyName"
	colCompanyID = "company_unique_id|company_id"
	colProduct   = "rawProductName|product"
	colVersion   = "Version|version"
)

// EntriesFromRows maps header-keyed rows, dropping rows without a FUID.
func EntriesFromRows(rows []map[string]string) []Entry {
	if len(rows) == 0 {
		return nil
	}
	head := rows[0]
	keys := map[string]string{}
	for name, want := range map[string]string{
		"fuid": colFUID, "platform": colPlatform, "company": colCompany,
		"company_id": colCompanyID, "product": colProduct, "version": colVersion,
	} {
		keys[name] = fileio.ResolveKey(head, want)
	}
	get := func(rec map[string]string, name string) string {
		if k := keys[name]; k != "" {
			return strings.TrimSpace(rec[k])
		}
		return ""
	}

	out := make([]Entry, 0, len(rows))
	for _, rec := range rows {
		e := Entry{
			FUID:      get(rec, "fuid"),
			Platform:  get(rec, "platform"),
			Company:   get(rec, "company"),
			CompanyID: get(rec, "company_id"),
			Product:   get(rec, "product"),
			Version:   get(rec, "version"),
		}
		if e.FUID != "" {
			out = append(out, e)
		}
	}
	return out
}

// EntriesFromRecords reports over the identity store itself.
func EntriesFromRecords(recs []*model.Record) []Entry {
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, Entry{
			FUID:      r.FUID,
			Platform:  r.Platform,
			Company:   r.Company,
			CompanyID: r.CompanyID,
			Product:   r.Product,
			Version:   r.Version,
		})
	}
	return out
}

// EntriesFromImport reports over the rows of a bulk import; failed rows
// carry no FUID and are dropped.
func EntriesFromImport(rows []service.ImportRow) []Entry {
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		if r.FUID == "" {
			continue
		}
		out = append(out, Entry{
			FUID:     r.FUID,
			Platform: r.Platform,
			Company:  r.Company,
			Product:  r.Product,
			Version:  r.Version,
		})
	}
	return out
}

type Duplicate struct {
	FUID          string   `json:"fuid"`
	Occurrences   int      `json:"occurrences"`
	Platforms     []string `json:"platforms"`
	PlatformCount int      `json:"platform_count"`
}

type DuplicateSummary struct {
	TotalEntries  int         `json:"total_entries"`
	UniqueFUIDs   int         `json:"unique_fuids"`
	Duplicated    int         `json:"duplicated"`
	MultiPlatform int         `json:"multi_platform"`
	Duplicates    []Duplicate `json:"duplicates"`
}

// Duplicates lists FUIDs with more than one entry, most frequent first.
// Platforms are distinct and sorted; a FUID with none reports "Unknown" and
// a platform count of zero.
func Duplicates(entries []Entry) DuplicateSummary {
	count := map[string]int{}
	platforms := map[string]map[string]struct{}{}
	for _, e := range entries {
		count[e.FUID]++
		if platforms[e.FUID] == nil {
			platforms[e.FUID] = map[string]struct{}{}
		}
		if e.Platform != "" {
			platforms[e.FUID][e.Platform] = struct{}{}
		}
	}

	sum := DuplicateSummary{TotalEntries: len(entries), UniqueFUIDs: len(count)}
	for fuid, n := range count {
		if n < 2 {
			continue
		}
		d := Duplicate{FUID: fuid, Occurrences: n, PlatformCount: len(platforms[fuid])}
		for p := range platforms[fuid] {
			d.Platforms = append(d.Platforms, p)
		}
		sort.Strings(d.Platforms)
		if len(d.Platforms) == 0 {
			d.Platforms = []string{unknownPlatform}
		}
		if d.PlatformCount > 1 {
			sum.MultiPlatform++
		}
		sum.Duplicates = append(sum.Duplicates, d)
	}
	sum.Duplicated = len(sum.Duplicates)
	sort.Slice(sum.Duplicates, func(i, j int) bool {
		a, b := sum.Duplicates[i], sum.Duplicates[j]
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		return a.FUID < b.FUID
	})
	return sum
}

type PlatformStat struct {
	Platform    string  `json:"platform"`
	Listings    int     `json:"listings"`
	UniqueFUIDs int     `json:"unique_fuids"`
	Companies   int     `json:"companies"`
	Products    int     `json:"products"`
	Share       float64 `json:"share"`
}

type VendorStat struct {
	CompanyID string `json:"company_id"`
	Company   string `json:"company"`
	FUIDs     int    `json:"fuids"`
}

type MarketplaceSummary struct {
	TotalListings        int            `json:"total_listings"`
	Vendors              int            `json:"vendors"`
	UniqueFUIDs          int            `json:"unique_fuids"`
	AvgFUIDsPerVendor    float64        `json:"avg_fuids_per_vendor"`
	Platforms            []PlatformStat `json:"platforms"`
	ProductsOnAll        int            `json:"products_on_all_platforms"`
	ProductsOnTwoPlus    int            `json:"products_on_two_plus"`
	ProductsOnExactlyTwo int            `json:"products_on_exactly_two"`
	TopVendors           []VendorStat   `json:"top_vendors"`
	WithVersion          int            `json:"with_version"`
	WithoutVersion       int            `json:"without_version"`
}

const topVendors = 10

// Marketplace summarizes listings per platform and per vendor. Vendors are
// keyed by company id, falling back to the company name.
func Marketplace(entries []Entry) MarketplaceSummary {
	sum := MarketplaceSummary{TotalListings: len(entries)}
	if len(entries) == 0 {
		return sum
	}

	fuids := map[string]struct{}{}
	type vendor struct {
		name  string
		fuids map[string]struct{}
	}
	vendors := map[string]*vendor{}
	perPlatform := map[string]*PlatformStat{}
	platformFUIDs := map[string]map[string]struct{}{}
	platformCompanies := map[string]map[string]struct{}{}
	platformProducts := map[string]map[string]struct{}{}
	productPlatforms := map[string]map[string]struct{}{}

	for _, e := range entries {
		fuids[e.FUID] = struct{}{}

		vk := e.CompanyID
		if vk == "" {
			vk = e.Company
		}
		v, ok := vendors[vk]
		if !ok {
			v = &vendor{name: e.Company, fuids: map[string]struct{}{}}
			vendors[vk] = v
		}
		v.fuids[e.FUID] = struct{}{}

		p := e.Platform
		if p == "" {
			p = unknownPlatform
		}
		ps, ok := perPlatform[p]
		if !ok {
			ps = &PlatformStat{Platform: p}
			perPlatform[p] = ps
			platformFUIDs[p] = map[string]struct{}{}
			platformCompanies[p] = map[string]struct{}{}
			platformProducts[p] = map[string]struct{}{}
		}
		ps.Listings++
		platformFUIDs[p][e.FUID] = struct{}{}
		platformCompanies[p][vk] = struct{}{}
		if e.Product != "" {
			platformProducts[p][e.Product] = struct{}{}
		}

		if e.Product != "" {
			if productPlatforms[e.Product] == nil {
				productPlatforms[e.Product] = map[string]struct{}{}
			}
			productPlatforms[e.Product][p] = struct{}{}
		}

		if service.CanonicalVersion(e.Version) == service.DefaultVersion {
			sum.WithoutVersion++
		} else {
			sum.WithVersion++
		}
	}

	sum.UniqueFUIDs = len(fuids)
	sum.Vendors = len(vendors)
	total := 0
	for _, v := range vendors {
		total += len(v.fuids)
	}
	sum.AvgFUIDsPerVendor = float64(total) / float64(len(vendors))

	for p, ps := range perPlatform {
		ps.UniqueFUIDs = len(platformFUIDs[p])
		ps.Companies = len(platformCompanies[p])
		ps.Products = len(platformProducts[p])
		ps.Share = 100 * float64(ps.Listings) / float64(len(entries))
		sum.Platforms = append(sum.Platforms, *ps)
	}
	sort.Slice(sum.Platforms, func(i, j int) bool {
		a, b := sum.Platforms[i], sum.Platforms[j]
		if a.Listings != b.Listings {
			return a.Listings > b.Listings
		}
		return a.Platform < b.Platform
	})

	for _, ps := range productPlatforms {
		n := len(ps)
		if n == len(perPlatform) && n > 1 {
			sum.ProductsOnAll++
		}
		if n >= 2 {
			sum.ProductsOnTwoPlus++
		}
		if n == 2 {
			sum.ProductsOnExactlyTwo++
		}
	}

	for id, v := range vendors {
		sum.TopVendors = append(sum.TopVendors, VendorStat{CompanyID: id, Company: v.name, FUIDs: len(v.fuids)})
	}
	sort.Slice(sum.TopVendors, func(i, j int) bool {
		a, b := sum.TopVendors[i], sum.TopVendors[j]
		if a.FUIDs != b.FUIDs {
			return a.FUIDs > b.FUIDs
		}
		return a.CompanyID < b.CompanyID
	})
	if len(sum.TopVendors) > topVendors {
		sum.TopVendors = sum.TopVendors[:topVendors]
	}
	return sum
}

// Report bundles both summaries for JSON output.
type Report struct {
	Duplicates  DuplicateSummary   `json:"duplicates"`
	Marketplace MarketplaceSummary `json:"marketplace"`
}

// Build runs both analyses over entries.
func Build(entries []Entry) Report {
	return Report{Duplicates: Duplicates(entries), Marketplace: Marketplace(entries)}
}

func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteXLSX exports both reports as one workbook.
func WriteXLSX(w io.Writer, dup DuplicateSummary, mkt MarketplaceSummary) error {
	dupRows := make([][]any, 0, len(dup.Duplicates))
	for _, d := range dup.Duplicates {
		dupRows = append(dupRows, []any{d.FUID, d.Occurrences, strings.Join(d.Platforms, ", "), d.PlatformCount})
	}
	platRows := make([][]any, 0, len(mkt.Platforms))
	for _, p := range mkt.Platforms {
		platRows = append(platRows, []any{p.Platform, p.Listings, p.UniqueFUIDs, p.Companies, p.Products, p.Share})
	}
	vendorRows := make([][]any, 0, len(mkt.TopVendors))
	for _, v := range mkt.TopVendors {
		vendorRows = append(vendorRows, []any{v.CompanyID, v.Company, v.FUIDs})
	}
	summary := [][]any{
		{"Total entries", dup.TotalEntries},
		{"Unique FUIDs", dup.UniqueFUIDs},
		{"FUIDs appearing more than once", dup.Duplicated},
		{"FUIDs on more than one platform", dup.MultiPlatform},
		{"Vendors", mkt.Vendors},
		{"Average FUIDs per vendor", mkt.AvgFUIDsPerVendor},
		{"Products on all platforms", mkt.ProductsOnAll},
		{"Products on two or more platforms", mkt.ProductsOnTwoPlus},
		{"Listings with a version", mkt.WithVersion},
		{"Listings without a version", mkt.WithoutVersion},
	}
	return fileio.WriteXLSX(w,
		fileio.Sheet{Name: "Summary", Headers: []string{"Metric", "Value"}, Rows: summary},
		fileio.Sheet{Name: "Duplicates", Headers: []string{"FUID", "Occurrences", "Platforms", "Platform count"}, Rows: dupRows},
		fileio.Sheet{Name: "Platforms", Headers: []string{"Platform", "Listings", "Unique FUIDs", "Companies", "Products", "Share %"}, Rows: platRows},
		fileio.Sheet{Name: "Top vendors", Headers: []string{"Company ID", "Company", "FUIDs"}, Rows: vendorRows},
	)
}
