// Package normalize canonicalizes text before it is embedded.
//
// Lexical variants of known acronyms ("mis", "Mis", "MIS") otherwise produce
// different embeddings for the same intent. Corpus questions and incoming
// queries must pass through the same Normalizer.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultAcronyms is the vocabulary used when none is configured.
var DefaultAcronyms = []string{"MIS", "ERP", "EIIS", "Q&A", "KTR", "NAC", "SSO", "GW", "WM"}

// Normalizer rewrites case variants of a fixed acronym vocabulary to their
// canonical uppercase form. It is immutable and safe for concurrent use.
type Normalizer struct {
	rules []rule
}

type rule struct {
	canonical string
	variants  []string
}

// New creates a Normalizer for the given vocabulary.
// Blank entries and duplicates are ignored; order is preserved.
func New(acronyms ...string) *Normalizer {
	seen := make(map[string]bool, len(acronyms))
	rules := make([]rule, 0, len(acronyms))
	for _, a := range acronyms {
		canonical := strings.ToUpper(strings.TrimSpace(a))
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		rules = append(rules, rule{
			canonical: canonical,
			variants:  variantsOf(canonical),
		})
	}
	return &Normalizer{rules: rules}
}

// Default creates a Normalizer for DefaultAcronyms.
func Default() *Normalizer {
	return New(DefaultAcronyms...)
}

// Acronyms returns the canonical vocabulary in configured order.
func (n *Normalizer) Acronyms() []string {
	out := make([]string, len(n.rules))
	for i, r := range n.rules {
		out[i] = r.canonical
	}
	return out
}

// Normalize replaces every lower, upper and title case occurrence of each
// acronym with its canonical form. Passes repeat until the text stops
// changing, so Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(text string) string {
	if n == nil || len(n.rules) == 0 {
		return text
	}
	// Each pass only turns letters uppercase, so the loop is bounded.
	for i := 0; i <= len(n.rules); i++ {
		next := n.pass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

// NormalizeAll applies Normalize to every element, returning a new slice.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t)
	}
	return out
}

func (n *Normalizer) pass(text string) string {
	for _, r := range n.rules {
		for _, v := range r.variants {
			text = strings.ReplaceAll(text, v, r.canonical)
		}
	}
	return text
}

// variantsOf returns the lower and title case spellings of canonical that
// differ from it.
func variantsOf(canonical string) []string {
	var out []string
	for _, v := range []string{strings.ToLower(canonical), titleCase(canonical)} {
		if v != canonical && !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// titleCase uppercases the first letter of every run of letters and
// lowercases the rest: "EIIS" -> "Eiis", "Q&A" -> "Q&A".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if unicode.IsLetter(r) {
			if inWord {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			inWord = true
		} else {
			inWord = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
