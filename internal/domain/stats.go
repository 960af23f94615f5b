// Package domain contains the core data structures and domain logic for the application.
package domain

// ViewSummary holds aggregate figures for a single dashboard view.
// Ages are measured in hours between a pull's last update and the moment the view was derived.
type ViewSummary struct {
	InRangeCount          int     `json:"in_range_count" yaml:"in_range_count"`
	ContributionCount     int     `json:"contribution_count" yaml:"contribution_count"`
	ContributorCount      int     `json:"contributor_count" yaml:"contributor_count"`
	MedianContributionAge float64 `json:"median_contribution_age_hours" yaml:"median_contribution_age_hours"`
	MeanContributionAge   float64 `json:"mean_contribution_age_hours" yaml:"mean_contribution_age_hours"`
}
