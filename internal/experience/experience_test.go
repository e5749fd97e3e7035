package experience

import (
	"regexp"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "plus form",
			text: "5+ years of experience in test automation",
			want: "5+",
			ok:   true,
		},
		{
			name: "range beats higher singleton",
			text: "We want 3-5 years of experience; 10+ years preferred for leads.",
			want: "3 - 5",
			ok:   true,
		},
		{
			name: "range with to",
			text: "4 to 6 years experience with Selenium",
			want: "4 - 6",
			ok:   true,
		},
		{
			name: "swapped range normalized",
			text: "7-3 years experience somehow",
			want: "3 - 7",
			ok:   true,
		},
		{
			name: "experience required header",
			text: "Experience required: 2 - 4",
			want: "2 - 4",
			ok:   true,
		},
		{
			name: "header colon form",
			text: "Experience: 8+",
			want: "8+",
			ok:   true,
		},
		{
			name: "minimum of",
			text: "minimum of 6 years of experience in networking",
			want: "6",
			ok:   true,
		},
		{
			name: "written numeral",
			text: "five years of experience with Java",
			want: "5",
			ok:   true,
		},
		{
			name: "bare years",
			text: "Requires 4 yrs exp in CI/CD",
			want: "4",
			ok:   true,
		},
		{
			name: "nbsp entity",
			text: "3&nbsp;years of experience",
			want: "3",
			ok:   true,
		},
		{
			name: "unrealistic years rejected",
			text: "established 45 years of industry leadership",
			want: "",
			ok:   false,
		},
		{
			name: "no mention",
			text: "Great culture and free snacks",
			want: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			if ok != tt.ok {
				t.Fatalf("Extract(%q) ok = %v, want %v (got %q)", tt.text, ok, tt.ok, got)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

var (
	singleShape = regexp.MustCompile(`^\d+$`)
	plusShape   = regexp.MustCompile(`^\d+\+$`)
	rangeShape  = regexp.MustCompile(`^(\d+) - (\d+)$`)
)

func TestExtractOutputShape(t *testing.T) {
	texts := []string{
		"5+ years of experience",
		"3-5 years of experience required",
		"Experience: 12+",
		"two years of experience",
		"at least 9 years as an engineer",
		"1 to 3 years experience plus 10+ years preferred",
	}

	for _, text := range texts {
		got, ok := Extract(text)
		if !ok {
			t.Fatalf("Extract(%q) found nothing", text)
		}
		switch {
		case singleShape.MatchString(got), plusShape.MatchString(got):
		case rangeShape.MatchString(got):
			m := rangeShape.FindStringSubmatch(got)
			if m[1] >= m[2] && len(m[1]) == len(m[2]) {
				t.Errorf("Extract(%q) = %q: range min not below max", text, got)
			}
		default:
			t.Errorf("Extract(%q) = %q: not a valid shape", text, got)
		}
	}
}

func TestRangeAlwaysBeatsSingleton(t *testing.T) {
	// The singleton scores far higher than the range; the range must
	// still win.
	got, ok := Extract("2-3 years of experience. 25+ years company history.")
	if !ok || got != "2 - 3" {
		t.Fatalf("got %q (ok=%v), want \"2 - 3\"", got, ok)
	}
}
