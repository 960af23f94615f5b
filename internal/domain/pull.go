package domain

import "time"

// PullRecord is a single open pull request as fetched from the remote source.
// The repository it came from is not kept.
type PullRecord struct {
	Number    int       `json:"number" yaml:"number"`
	Title     string    `json:"title" yaml:"title"`
	URL       string    `json:"url" yaml:"url"`
	Author    string    `json:"author" yaml:"author"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// GithubDataset is the full result of one refresh. Pulls are sorted by UpdatedAt, newest first.
type GithubDataset struct {
	StartDate  time.Time    `json:"startDate" yaml:"start_date"`
	Pulls      []PullRecord `json:"pulls" yaml:"pulls"`
	CacheStamp int64        `json:"cacheStamp" yaml:"cache_stamp"`
}

// DashboardView is derived from a dataset for one range start. It is never persisted.
type DashboardView struct {
	Source        GithubDataset `json:"source" yaml:"source"`
	RangeStart    time.Time     `json:"rangeStart" yaml:"range_start"`
	InRange       []PullRecord  `json:"inRange" yaml:"in_range"`
	Contributions []PullRecord  `json:"contributions" yaml:"contributions"`
	Summary       ViewSummary   `json:"summary" yaml:"summary"`
}
