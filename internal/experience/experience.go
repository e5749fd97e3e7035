// Package experience extracts a required-years-of-experience token from
// free-form posting text.
package experience

import (
	"regexp"
	"strconv"
	"strings"
)

// Upper bound on believable years; larger values are parse artifacts
// (salary figures, years like "2024").
const maxSaneYears = 30

var writtenNums = strings.NewReplacer(
	"twelve", "12", "eleven", "11", "ten", "10", "nine", "9",
	"eight", "8", "seven", "7", "six", "6", "five", "5",
	"four", "4", "three", "3", "two", "2", "one", "1",
)

// The extraction cascade. Families are tried in order and all matches from
// every family are aggregated; selection happens afterwards.
var families = []*regexp.Regexp{
	// "Experience required: 3 - 5" with messy separators.
	regexp.MustCompile(`(?i)experience\s+required\s*[:\-–—]*\s*\d+(?:\s*(?:to|[-–—])\s*\d+)?`),
	// "5 years of experience", "at least 3 years as".
	regexp.MustCompile(`(?i)(?:at\s*least\s+|atleast\s+|minimum\s+of\s+)?\d+\+?\s*years?\s+(?:of\s+)?(?:experience|industry|related|as)\b`),
	// General "3 to 5 years", "4+ yrs exp", "6 y professional".
	regexp.MustCompile(`(?i)\d+(?:\s*(?:to|[-–—])\s*\d+)?\s*\+?\s*(?:years?|yrs?|y)\b(?:\s+(?:of\s+)?(?:experience|exp|professional|prof|background|testing|industry|relevant|hands[- ]?on|experienced))?`),
	// Header style "Experience: 3-5+".
	regexp.MustCompile(`(?i)experience\s*:\s*\d+(?:\s*[-–—]\s*\d+)?\s*\+?`),
	// "10+ years", "10+ overall".
	regexp.MustCompile(`(?i)\d+\s*\+\s*(?:years?|overall|total)`),
	// Written numerals: "five years of experience".
	regexp.MustCompile(`(?i)(?:one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+years?\s+of\s+(?:experience|industry|related|as)\b`),
}

var (
	numRe       = regexp.MustCompile(`\d+`)
	rangeNormRe = regexp.MustCompile(`(\d+)\s*(?:to|[-–—])\s*(\d+)`)
	plusNormRe  = regexp.MustCompile(`(\d+)\s*(?:\+|plus)`)
	parenRe     = regexp.MustCompile(`[()]`)
	wsRe        = regexp.MustCompile(`\s+`)
)

type candidate struct {
	text    string
	isRange bool
	score   int
}

// Extract finds the years-of-experience requirement in text (typically
// title + " " + sanitized description). The second return is false when
// nothing usable matched.
//
// Selection rule: an explicit range always beats a standalone figure,
// whatever their scores; among candidates of the same kind the higher
// score wins.
func Extract(text string) (string, bool) {
	t := strings.ReplaceAll(text, "&nbsp;", " ")
	t = wsRe.ReplaceAllString(t, " ")

	var cands []candidate
	for _, re := range families {
		for _, m := range re.FindAllString(t, -1) {
			if c, ok := makeCandidate(m); ok {
				cands = append(cands, c)
			}
		}
	}
	if len(cands) == 0 {
		return "", false
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.isRange != best.isRange {
			if c.isRange {
				best = c
			}
			continue
		}
		if c.score > best.score {
			best = c
		}
	}

	return normalize(best), true
}

func makeCandidate(match string) (candidate, bool) {
	cleaned := parenRe.ReplaceAllString(match, "")
	cleaned = writtenNums.Replace(strings.ToLower(cleaned))

	nums := numRe.FindAllString(cleaned, -1)
	if len(nums) == 0 {
		return candidate{}, false
	}

	score := 0
	for _, n := range nums {
		if v, err := strconv.Atoi(n); err == nil && v > score {
			score = v
		}
	}
	if score >= maxSaneYears {
		return candidate{}, false
	}

	hasSep := strings.Contains(cleaned, "-") ||
		strings.Contains(cleaned, "–") ||
		strings.Contains(cleaned, " to ")

	return candidate{
		text:    cleaned,
		isRange: hasSep && len(nums) >= 2,
		score:   score,
	}, true
}

func normalize(c candidate) string {
	if m := rangeNormRe.FindStringSubmatch(c.text); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		return strconv.Itoa(lo) + " - " + strconv.Itoa(hi)
	}
	if m := plusNormRe.FindStringSubmatch(c.text); m != nil {
		return m[1] + "+"
	}
	return strconv.Itoa(c.score)
}
