// Package model defines the domain types used across the pipeline.
package model

import "time"

// YoeUnknown is persisted when no years-of-experience value was found.
const YoeUnknown = "—"

// RoleUnknown is persisted when classification produced no confident role.
const RoleUnknown = "—"

// SourceLinkedIn is the source tag for postings harvested from the primary
// board. Only postings with this source are closure-probed.
const SourceLinkedIn = "linkedin"

// SearchHit is a transient row produced by harvesting one search page.
type SearchHit struct {
	URL      string
	Title    string
	Company  string
	Location string
	AgoTime  string // raw relative-time text, e.g. "2 hours ago"
	ISODate  string // optional datetime attribute from the card
	Keyword  string // the keyword that produced this hit
	Source   string // originating adjunct; empty means the primary board
}

// DetailRecord is the outcome of fetching one posting's detail endpoint.
// All fields are optional; a failed fetch yields the zero value.
type DetailRecord struct {
	PostedAt    *time.Time
	ApplyURL    string
	Description string
	CompanyURL  string
	Closed      *bool
}

// Classification is the classifier verdict for one posting.
type Classification struct {
	RoleType    string             `json:"roleType"`
	Confidence  float64            `json:"confidence"`
	DebugScores map[string]float64 `json:"debugScores"`
}

// Posting is a persisted, fully enriched job posting.
type Posting struct {
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	Type           string         `json:"type"`
	DatePosted     time.Time      `json:"datePosted"`
	URL            string         `json:"url"`
	Source         string         `json:"source"`
	SourceURL      string         `json:"sourceUrl"`
	JobID          string         `json:"jobId"`
	Description    string         `json:"description"`
	CompanyURL     string         `json:"companyUrl"`
	Yoe            string         `json:"yoe"`
	Classification Classification `json:"classification"`
}

// Corpus is the single persisted document read by the front-end.
type Corpus struct {
	TotalCount         int        `json:"totalCount"`
	RecentlyAddedCount int        `json:"recentlyAddedCount"`
	RecentlyUpdatedOn  *time.Time `json:"recentlyUpdatedOn,omitempty"`
	Data               []Posting  `json:"data"`
}

// RunStats summarizes one pipeline run for reporting and the run log.
type RunStats struct {
	StartedAt   time.Time
	Duration    time.Duration
	Harvested   int // raw search hits across all keywords
	Deduped     int // hits surviving URL dedup
	RepostDrops int // hits dropped by the repost heuristic
	KnownDrops  int // hits dropped because the ID is already known
	Fresh       int // hits surviving the freshness gate
	Added       int // genuinely new postings merged in
	Purged      int // postings aged out by retention
	ProbedClose int // postings removed by the closure probe
	Total       int // corpus size after the run
}
