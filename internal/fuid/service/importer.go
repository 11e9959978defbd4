package service

import (
	"context"
	"io"
	"strings"

	"fuid-service/internal/fileio"
	"fuid-service/internal/fuid/lexical"
	"fuid-service/internal/fuid/model"
)

// VersionExtractor derives a version from a product name when a row has none.
type VersionExtractor interface {
	ExtractVersion(ctx context.Context, product string) (string, error)
}

// Columns lists the accepted header names per field, "|"-separated.
type Columns struct {
	Company    string
	Product    string
	Version    string
	Platform   string
	URL        string
	Categories string
}

var DefaultColumns = Columns{
	Company:    "companyName|company|company_name|vendor",
	Product:    "rawProductName|product|product_name|title",
	Version:    "Version|version",
	Platform:   "platform|marketplace",
	URL:        "url|link",
	Categories: "categories|category",
}

type ImportOptions struct {
	Columns   Columns
	HeaderRow int
	// Platform is used for rows without a platform column value.
	Platform string
	// ExtractVersions asks the extractor for rows with a blank version.
	ExtractVersions bool
}

type ImportRow struct {
	Line       int    `json:"line"`
	Company    string `json:"company"`
	Product    string `json:"product"`
	Version    string `json:"version"`
	Platform   string `json:"platform,omitempty"`
	URL        string `json:"url,omitempty"`
	Categories string `json:"categories,omitempty"`
	FUID       string `json:"fuid,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type ImportSummary struct {
	Rows     []ImportRow `json:"rows"`
	New      int         `json:"new"`
	Existing int         `json:"existing"`
	Failed   int         `json:"failed"`
}

const importFailed = "Failed"

// Import reads a csv, xls or xlsx listing and generates a FUID per row. Row
// failures are reported in the summary; only unreadable files fail the call.
func (s *Service) Import(ctx context.Context, r io.Reader, filename string, opt ImportOptions) (ImportSummary, error) {
	if opt.HeaderRow <= 0 {
		opt.HeaderRow = 1
	}
	cols := opt.Columns
	if cols == (Columns{}) {
		cols = DefaultColumns
	}
	maps, err := fileio.ReadAnyMaps(r, filename, opt.HeaderRow)
	if err != nil {
		return ImportSummary{}, err
	}

	var sum ImportSummary
	for i, rec := range maps {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		row := ImportRow{
			Line:       opt.HeaderRow + i + 1,
			Company:    field(rec, cols.Company),
			Product:    field(rec, cols.Product),
			Version:    field(rec, cols.Version),
			Platform:   field(rec, cols.Platform),
			URL:        field(rec, cols.URL),
			Categories: field(rec, cols.Categories),
		}
		if row.Platform == "" {
			row.Platform = opt.Platform
		}
		if row.Version == "" && opt.ExtractVersions && s.extractor != nil && row.Product != "" {
			if v, err := s.extractor.ExtractVersion(ctx, lexical.Normalize(row.Product)); err == nil {
				row.Version = v
			}
		}

		res, err := s.Generate(model.GenerateRequest{
			Company:    row.Company,
			Product:    row.Product,
			Version:    row.Version,
			Platform:   row.Platform,
			URL:        row.URL,
			Categories: row.Categories,
		})
		if err != nil {
			row.Status, row.Error = importFailed, err.Error()
			sum.Failed++
			sum.Rows = append(sum.Rows, row)
			continue
		}
		row.FUID, row.Version, row.Status = res.FUID, res.Version.Version, string(res.FUIDStatus)
		if res.IsNew() {
			sum.New++
		} else {
			sum.Existing++
		}
		sum.Rows = append(sum.Rows, row)
	}
	s.log.Info().
		Str("file", filename).
		Int("rows", len(maps)).
		Int("new", sum.New).
		Int("existing", sum.Existing).
		Int("failed", sum.Failed).
		Msg("import done")
	return sum, nil
}

func field(rec map[string]string, want string) string {
	if k := fileio.ResolveKey(rec, want); k != "" {
		return strings.TrimSpace(rec[k])
	}
	return ""
}
