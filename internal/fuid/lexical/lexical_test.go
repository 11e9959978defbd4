package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "company with punctuation", input: "Acme Software, Inc. v2.1", expected: "acme software inc v2.1"},
		{name: "accents stripped", input: "Café Société", expected: "cafe societe"},
		{name: "whitespace collapsed", input: "  Widget \t\n Pro  ", expected: "widget pro"},
		{name: "symbols removed", input: "C++ / C# (Tools)", expected: "c c tools"},
		{name: "underscore removed", input: "foo_bar", expected: "foobar"},
		{name: "dots kept", input: "Node.js 18.x", expected: "node.js 18.x"},
		{name: "only symbols", input: "!!! ---", expected: ""},
		{name: "trailing dot dropped", input: "Acme Ltd.", expected: "acme ltd"},
		{name: "leading dot dropped", input: ".NET Runtime", expected: "net runtime"},
		{name: "lone dot dropped", input: "a . b", expected: "a b"},
		{name: "double dot dropped", input: "a..b", expected: "ab"},
		{name: "inner dot kept", input: "v2.1", expected: "v2.1"},
		{name: "dot next to removed symbol", input: "C#.Net", expected: "c.net"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Acme Software, Inc. v2.1",
		"ÀÉÎÕÜ çñ",
		"Ǆemal Ltd.",
		"  spaced out name ",
		"微软 Office 365",
		"İstanbul Tech",
		"x².y³",
		"a . b.. c.d .e f.",
		"é.x",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{name: "identical", a: "widget", b: "widget", expected: 100},
		{name: "case insensitive", a: "Widget Pro", b: "widget pro", expected: 100},
		{name: "both empty", a: "", b: "", expected: 100},
		{name: "one empty", a: "widget", b: "", expected: 0},
		{name: "disjoint", a: "abc", b: "xyz", expected: 0},
		{name: "one substitution", a: "abcd", b: "abce", expected: 75},
		{name: "prefix", a: "widget", b: "widget pro", expected: 75},
		{name: "rounded", a: "ab", b: "a", expected: 67},
		{name: "half to even", a: "abcdefgh", b: "aijklmno", expected: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Ratio(tt.a, tt.b))
			assert.Equal(t, tt.expected, Ratio(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 0.75, Similarity("abcd", "abce"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("x", "X"), 1e-9)
}
