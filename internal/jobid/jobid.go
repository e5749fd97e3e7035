// Package jobid maps posting URLs to stable numeric posting IDs.
package jobid

import (
	"html"
	"net/url"
	"regexp"
	"strings"
)

// Extraction patterns, tried in order. The source embeds the ID in several
// URL shapes depending on where the link was rendered.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/jobs/view/(\d{6,})`),
	regexp.MustCompile(`[?&]currentJobId=(\d{6,})`),
	regexp.MustCompile(`/jobPosting/(\d{6,})`),
	regexp.MustCompile(`[?&]trk=[^&]*-(\d{6,})`),
}

var digitRun = regexp.MustCompile(`\d+`)

// FromBoardURL extracts the posting ID using only the board's known URL
// shapes. Returns "" for foreign URLs, where the digit-run fallback of
// FromURL would fabricate an ID.
func FromBoardURL(rawURL string) string {
	u := html.UnescapeString(rawURL)
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}
	return ""
}

// FromURL extracts the posting ID from a URL. Returns "" when the URL
// contains no digits at all.
func FromURL(rawURL string) string {
	if id := FromBoardURL(rawURL); id != "" {
		return id
	}

	// Fallback: the longest purely numeric run anywhere in the URL.
	var longest string
	for _, run := range digitRun.FindAllString(html.UnescapeString(rawURL), -1) {
		if len(run) > len(longest) {
			longest = run
		}
	}
	return longest
}

// CleanURL reduces a posting URL to origin + path with entities unescaped,
// which is the identity used for URL-level dedup.
func CleanURL(rawURL string) string {
	unescaped := html.UnescapeString(rawURL)
	u, err := url.Parse(unescaped)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return unescaped
	}
	return u.Scheme + "://" + u.Host + u.Path
}

// Less reports whether id a is numerically smaller than id b. IDs are
// decimal digit strings of arbitrary length: leading zeros are dropped,
// then shorter means smaller.
func Less(a, b string) bool {
	a, b = trimZeros(a), trimZeros(b)
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func trimZeros(s string) string {
	if t := strings.TrimLeft(s, "0"); t != "" {
		return t
	}
	return "0"
}

// Max returns the numerically largest ID in ids, or "" for an empty slice.
func Max(ids []string) string {
	var max string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if max == "" || Less(max, id) {
			max = id
		}
	}
	return max
}
