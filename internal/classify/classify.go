// Package classify scores postings against a role taxonomy using a
// weighted keyword scorer with title boosts, negative terms, and nudges.
//
// The taxonomy itself (category names, phrase lists, boosts) is data, not
// code: it lives in categories.json and can be replaced without touching
// the scorer.
package classify

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"jobwatch/internal/model"
)

// Default taxonomy shipped with the binary.
//
//go:embed categories.json
var defaultTaxonomy []byte

// LoadDefault compiles the embedded taxonomy.
func LoadDefault() (*Classifier, error) {
	var cfg Config
	if err := json.Unmarshal(defaultTaxonomy, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded taxonomy: %w", err)
	}
	return New(cfg)
}

// Role names the fallback heuristics hard-wire. They must exist in the
// loaded taxonomy.
const (
	roleSoftwareQA = "SoftwareQA"
	roleDevOps     = "DevOps/SRE"
	roleHardwareQA = "HardwareQA"
)

// Hit caps and weights for each scoring signal.
const (
	capPhraseTitle = 6
	capPhraseDesc  = 10
	capTermTitle   = 8
	capTermDesc    = 20
	capNegTitle    = 12
	capNegDesc     = 30
	capTitleBoost  = 6

	weightPhraseTitle = 4
	weightPhraseDesc  = 2
	weightTermTitle   = 3
	weightTermDesc    = 1
	weightNegTitle    = -2.5
	weightNegDesc     = -1.0
)

// Category holds the configurable matching content for one role.
type Category struct {
	Phrases    []string `json:"phrases"`
	Terms      []string `json:"terms"`
	Negative   []string `json:"negative"`
	TitleBoost float64  `json:"titleBoost"`
	Weight     float64  `json:"weight"`
}

// TitleNudge adds Boost to Category's score when Pattern matches the title.
type TitleNudge struct {
	Category string  `json:"category"`
	Pattern  string  `json:"pattern"`
	Boost    float64 `json:"boost"`
}

// ProximityNudge adds Boost to Category's score when every pattern in All
// matches the description.
type ProximityNudge struct {
	Category string   `json:"category"`
	All      []string `json:"all"`
	Boost    float64  `json:"boost"`
}

// Config is the on-disk taxonomy document.
type Config struct {
	Categories      map[string]Category `json:"categories"`
	TitleNudges     []TitleNudge        `json:"titleNudges"`
	ProximityNudges []ProximityNudge    `json:"proximityNudges"`
}

type group struct {
	phraseRe *regexp.Regexp // multi-word / punctuated items, matched literally
	termRe   *regexp.Regexp // single tokens, matched with word boundaries
}

type compiled struct {
	positive   group
	negative   group
	titleBoost float64
	weight     float64
}

type proximity struct {
	patterns []*regexp.Regexp
	boost    float64
}

// Classifier scores titles and descriptions against the taxonomy.
type Classifier struct {
	categories map[string]*compiled
	titleNudge map[string][]struct {
		re    *regexp.Regexp
		boost float64
	}
	proximity map[string][]proximity
}

// New compiles a taxonomy config into a Classifier.
func New(cfg Config) (*Classifier, error) {
	c := &Classifier{
		categories: make(map[string]*compiled, len(cfg.Categories)),
		titleNudge: make(map[string][]struct {
			re    *regexp.Regexp
			boost float64
		}),
		proximity: make(map[string][]proximity),
	}

	for name, cat := range cfg.Categories {
		pos, err := buildGroup(cat.Phrases, cat.Terms)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		neg, err := splitGroup(cat.Negative)
		if err != nil {
			return nil, fmt.Errorf("category %s negatives: %w", name, err)
		}
		weight := cat.Weight
		if weight == 0 {
			weight = 1
		}
		c.categories[name] = &compiled{
			positive:   pos,
			negative:   neg,
			titleBoost: cat.TitleBoost,
			weight:     weight,
		}
	}

	for _, n := range cfg.TitleNudges {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return nil, fmt.Errorf("title nudge %q: %w", n.Pattern, err)
		}
		c.titleNudge[n.Category] = append(c.titleNudge[n.Category], struct {
			re    *regexp.Regexp
			boost float64
		}{re, n.Boost})
	}

	for _, n := range cfg.ProximityNudges {
		var res []*regexp.Regexp
		for _, p := range n.All {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("proximity nudge %q: %w", p, err)
			}
			res = append(res, re)
		}
		c.proximity[n.Category] = append(c.proximity[n.Category], proximity{res, n.Boost})
	}

	return c, nil
}

// Load reads a taxonomy config from path and compiles it.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	return New(cfg)
}

// Title-marker fallbacks consulted when the score winner is weak or close.
var (
	qaTitleRe       = regexp.MustCompile(`\b(qa|tester|sdet|quality assurance)\b`)
	devopsTitleRe   = regexp.MustCompile(`\b(devops|sre|site[- ]reliability)\b`)
	hardwareTitleRe = regexp.MustCompile(`\b(hardware|firmware|embedded|mechanical)\b`)
	nonEngTitleRe   = regexp.MustCompile(`\b(recruiter|recruiting|hiring|talent acquisition|compliance|audit|auditor|civil|construction|mep|repair)\b`)
	civilTitleRe    = regexp.MustCompile(`\b(construction|civil)\b`)
)

// Classify scores title and description against every category and emits
// the winning role with a confidence in [0, 1].
func (c *Classifier) Classify(title, description string) model.Classification {
	nt := normalizeText(title)
	nd := normalizeText(description)

	scores := make(map[string]float64, len(c.categories))
	for name, cat := range c.categories {
		scores[name] = c.score(name, cat, nt, nd)
	}

	winner, s1, s2 := topTwo(scores)
	margin := s1 - s2
	confidence := round2(0.6*math.Tanh(margin/4) + 0.4*math.Tanh(math.Max(0, s1)/8))

	// Weak or ambiguous winners defer to explicit title markers.
	if s1 < 4 || margin < 1 {
		switch {
		case qaTitleRe.MatchString(nt):
			winner = roleSoftwareQA
		case devopsTitleRe.MatchString(nt):
			winner = roleDevOps
		case hardwareTitleRe.MatchString(nt):
			winner = roleHardwareQA
		}
	}

	if confidence < 0.4 || s1 < 3 {
		if nonEngTitleRe.MatchString(nt) || s1 < 3 {
			winner = model.RoleUnknown
		}
	}

	// QA verdicts on construction/civil titles are spurious keyword overlap.
	if winner == roleSoftwareQA && civilTitleRe.MatchString(nt) {
		winner = model.RoleUnknown
	}

	return model.Classification{
		RoleType:    winner,
		Confidence:  confidence,
		DebugScores: scores,
	}
}

func (c *Classifier) score(name string, cat *compiled, title, desc string) float64 {
	phraseTitle := clampHits(countHits(cat.positive.phraseRe, title), capPhraseTitle)
	phraseDesc := clampHits(countHits(cat.positive.phraseRe, desc), capPhraseDesc)
	termTitle := clampHits(countHits(cat.positive.termRe, title), capTermTitle)
	termDesc := clampHits(countHits(cat.positive.termRe, desc), capTermDesc)
	negTitle := clampHits(countHits(cat.negative.phraseRe, title)+countHits(cat.negative.termRe, title), capNegTitle)
	negDesc := clampHits(countHits(cat.negative.phraseRe, desc)+countHits(cat.negative.termRe, desc), capNegDesc)

	score := float64(phraseTitle)*weightPhraseTitle +
		float64(phraseDesc)*weightPhraseDesc +
		float64(termTitle)*weightTermTitle +
		float64(termDesc)*weightTermDesc +
		float64(negTitle)*weightNegTitle +
		float64(negDesc)*weightNegDesc

	boost := cat.titleBoost * float64(phraseTitle+termTitle)
	if boost > capTitleBoost {
		boost = capTitleBoost
	}
	score += boost

	for _, p := range c.proximity[name] {
		all := true
		for _, re := range p.patterns {
			if !re.MatchString(desc) {
				all = false
				break
			}
		}
		if all {
			score += p.boost
		}
	}

	for _, n := range c.titleNudge[name] {
		if n.re.MatchString(title) {
			score += n.boost
		}
	}

	return score * cat.weight
}

// normalizeText lowercases, applies NFKC, straightens apostrophes, and
// strips characters outside word/space/`+#./-`.
func normalizeText(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return stripRe.ReplaceAllString(s, " ")
}

var stripRe = regexp.MustCompile(`[^\w\s+#./'-]`)

func buildGroup(phrases, terms []string) (group, error) {
	return splitGroup(append(append([]string{}, phrases...), terms...))
}

// splitGroup partitions items into phrase-like entries (anything with
// whitespace or `. / + -`) matched literally, and plain tokens matched
// inside word boundaries.
func splitGroup(items []string) (group, error) {
	var phrases, tokens []string
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it == "" {
			continue
		}
		if strings.ContainsAny(it, " \t./+-") {
			phrases = append(phrases, regexp.QuoteMeta(it))
		} else {
			tokens = append(tokens, regexp.QuoteMeta(it))
		}
	}

	var g group
	var err error
	if len(phrases) > 0 {
		if g.phraseRe, err = regexp.Compile(strings.Join(phrases, "|")); err != nil {
			return g, err
		}
	}
	if len(tokens) > 0 {
		if g.termRe, err = regexp.Compile(`\b(?:` + strings.Join(tokens, "|") + `)\b`); err != nil {
			return g, err
		}
	}
	return g, nil
}

// countHits counts distinct match positions, deduped by text@index.
func countHits(re *regexp.Regexp, text string) int {
	if re == nil || text == "" {
		return 0
	}
	seen := make(map[string]struct{})
	for _, loc := range re.FindAllStringIndex(text, -1) {
		key := text[loc[0]:loc[1]] + "@" + fmt.Sprint(loc[0])
		seen[key] = struct{}{}
	}
	return len(seen)
}

func clampHits(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}

func topTwo(scores map[string]float64) (winner string, s1, s2 float64) {
	type kv struct {
		name  string
		score float64
	}
	ranked := make([]kv, 0, len(scores))
	for name, s := range scores {
		ranked = append(ranked, kv{name, s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})

	winner = ranked[0].name
	s1 = ranked[0].score
	if len(ranked) > 1 {
		s2 = ranked[1].score
	}
	return winner, s1, s2
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
