// Package lexical holds the text canonicalization and edit-distance scoring
// shared by the identity store, the resolver and the semantic engine.
package lexical

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a raw entity name for equality and lookup:
// lowercase, NFD decomposition, drop everything except letters, digits and
// whitespace, collapse whitespace. A '.' survives only between two
// alphanumerics, so "v2.1" and "node.js" keep it and "Inc." loses it. The
// same function must run on ingestion and on queries.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := norm.NFD.String(strings.ToLower(raw))
	rs := []rune(strings.Map(keepRune, s))
	out := rs[:0:0]
	for i, r := range rs {
		if r == '.' && (i == 0 || i == len(rs)-1 || !isAlnum(rs[i-1]) || !isAlnum(rs[i+1])) {
			continue
		}
		out = append(out, r)
	}
	return strings.Join(strings.Fields(string(out)), " ")
}

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsNumber(r) }

// combining marks produced by NFD are not letters, so accents fall out here
func keepRune(r rune) rune {
	switch {
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r), r == '.':
		return r
	}
	return -1
}
