// Package sanitize normalizes scraped description text to plain ASCII-ish
// prose: NFKC form, straight punctuation, no invisible codepoints.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Curly punctuation and typographic characters mapped to ASCII.
var punct = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"‚", "'",
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"„", `"`,
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...",
	"\u00a0", " ",
)

var (
	// A [.,;:] glued to the next word gets a space.
	missingSpaceRe = regexp.MustCompile(`([.,;:])([^\s.,;:])`)
	repeatDotRe    = regexp.MustCompile(`\.{2,}`)
	repeatCommaRe  = regexp.MustCompile(`,{2,}`)
	repeatSemiRe   = regexp.MustCompile(`;{2,}`)
	runSpaceRe     = regexp.MustCompile(`[ \t]+`)
)

// Clean sanitizes free-form posting text. It is idempotent.
func Clean(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = punct.Replace(s)
	s = stripInvisible(s)

	s = missingSpaceRe.ReplaceAllString(s, "$1 $2")
	s = repeatDotRe.ReplaceAllString(s, ".")
	s = repeatCommaRe.ReplaceAllString(s, ",")
	s = repeatSemiRe.ReplaceAllString(s, ";")

	s = replaceSpaces(s)
	s = runSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripInvisible drops format, private-use, unassigned, and line/paragraph
// separator codepoints, plus the BOM.
func stripInvisible(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\uFEFF' {
			continue
		}
		if unicode.In(r, unicode.Cf, unicode.Co, unicode.Zl, unicode.Zp) {
			continue
		}
		if !unicode.IsGraphic(r) && !unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// replaceSpaces maps any remaining space-category codepoint to ASCII space,
// preserving newlines.
func replaceSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}
