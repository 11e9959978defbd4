package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrUnsupportedFile is returned for extensions other than csv, xls and xlsx.
var ErrUnsupportedFile = errors.New("unsupported file")

// ReadAnyMaps picks a parser by extension and returns the rows as
// header-keyed maps. headerRow is 1-based.
func ReadAnyMaps(r io.Reader, filename string, headerRow int) ([]map[string]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx":
		return readXLSX(r, headerRow)
	case ".xls":
		return readXLS(r, headerRow)
	case ".csv":
		return readCSV(r, headerRow)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filename)
	}
}

// pickHeader takes the header row and names blank cells "Column N".
func pickHeader(rows [][]string, headerRow int) []string {
	if len(rows) == 0 {
		return nil
	}
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(strings.TrimPrefix(v, "\uFEFF"))
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps keys the rows after the header by column name, skipping rows
// that are entirely blank.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	start := max(headerRow, 1)
	var out []map[string]string
	for r := start; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c := range headers {
			var v string
			if c < len(rec) {
				v = normalizeCell(rec[c])
			}
			if v != "" {
				empty = false
			}
			m[headers[c]] = v
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}

// normalizeCell trims a cell and folds the non-breaking spaces spreadsheets
// like to carry.
func normalizeCell(s string) string {
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	return strings.TrimSpace(s)
}

var reHeaderJunk = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normHeaderKey(s string) string {
	s = strings.ToLower(normalizeCell(s))
	s = reHeaderJunk.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ResolveKey finds the column of rec that best matches want. want may list
// alternatives separated by "|"; exact names win over normalized names,
// which win over containment.
func ResolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	norm := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			norm = append(norm, n)
		}
	}
	best, bestScore := "", 0
	for k := range rec {
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		score := 0
		for _, n := range norm {
			if nk == n {
				return k
			}
			if strings.Contains(nk, n) || strings.Contains(n, nk) {
				score = max(score, len(n))
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && k < best) {
			best, bestScore = k, score
		}
	}
	return best
}
