package lexical

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio is the case-insensitive edit-distance similarity of a and b in
// [0, 100]. It counts insertions and deletions only (a substitution costs
// two), so the result equals 2*LCS/(len(a)+len(b)), rounded half to even.
func Ratio(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	dist := edlib.LCSEditDistance(a, b)
	r := float64(total-dist) / float64(total)
	return math.RoundToEven(100 * r)
}

// Similarity is Ratio scaled to [0, 1].
func Similarity(a, b string) float64 {
	return Ratio(a, b) / 100
}
