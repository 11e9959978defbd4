package service

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultVersion is the canonical "no version" value.
const DefaultVersion = "00"

var versionSentinels = map[string]struct{}{
	"NO VERSION FOUND": {},
	"NO VERSION":       {},
	"NONE":             {},
	"N/A":              {},
}

var reNonAlnumASCII = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// CompanyID builds PREFIX:NNNNN from the first five ASCII alphanumerics of
// the name, or UNKNOWNNNNNN when there are none.
func CompanyID(name string, counter int) string {
	cleaned := reNonAlnumASCII.ReplaceAllString(name, " ")
	prefix := strings.Join(strings.Fields(cleaned), "")
	if prefix == "" {
		return fmt.Sprintf("UNKNOWN%05d", counter)
	}
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	return fmt.Sprintf("%s:%05d", strings.ToUpper(prefix), counter)
}

func ProductID(counter int) string {
	return fmt.Sprintf("%04d", counter)
}

// CanonicalVersion trims v and maps blank or sentinel answers to "00".
func CanonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return DefaultVersion
	}
	if _, ok := versionSentinels[strings.ToUpper(v)]; ok {
		return DefaultVersion
	}
	return v
}

// FormatFUID is a pure function of its inputs.
func FormatFUID(companyID, productID, version string) string {
	v := strings.Join(strings.Fields(CanonicalVersion(version)), "")
	return fmt.Sprintf("FUID-%s-%s-%s", companyID, productID, v)
}
