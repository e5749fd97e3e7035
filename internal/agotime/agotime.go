// Package agotime converts relative-time strings like "2 hours ago" to
// absolute instants.
package agotime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// units maps a unit token to its duration. New locales or synonyms are
// added here, not in code.
var units = map[string]time.Duration{
	"minute":  time.Minute,
	"minutes": time.Minute,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
}

var (
	agoRe   = regexp.MustCompile(`(\d+)\s+(minutes?|hours?|days?)\s+ago`)
	noiseRe = regexp.MustCompile(`\b(active|posted|about|approximately)\b`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Abbreviation and article expansions applied before matching.
var expansions = strings.NewReplacer(
	" mins ", " minutes ",
	" min ", " minute ",
	" hrs ", " hours ",
	" hr ", " hour ",
	"a minute", "1 minute",
	"an hour", "1 hour",
)

// Parse resolves a relative-time string against now. The second return is
// false when the string matches no known form. The result is never after
// now: positive drift from clock skew or rounding is clamped.
func Parse(raw string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}, false
	}

	switch s {
	case "just now", "just posted", "posted just now":
		return now, true
	}

	s = noiseRe.ReplaceAllString(s, " ")
	s = " " + s + " "
	s = expansions.Replace(s)
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	if s == "just now" {
		return now, true
	}
	if s == "yesterday" {
		return now.Add(-24 * time.Hour), true
	}

	m := agoRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	unit, ok := units[m[2]]
	if !ok {
		return time.Time{}, false
	}

	t := now.Add(-time.Duration(n) * unit)
	if t.After(now) {
		t = now
	}
	return t, true
}
