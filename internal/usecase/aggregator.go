// Package usecase contains the business logic of the application.
package usecase

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/naka-gawa/pr-dashboard/internal/domain"
)

// Aggregator is the use case for deriving dashboard views.
// It filters a dataset to a range and splits out contributions from outside the team.
type Aggregator struct {
	team   map[string]struct{}
	now    func() time.Time
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator instance for the given team member logins.
func NewAggregator(teamMembers []string, now func() time.Time, logger *zap.Logger) *Aggregator {
	team := make(map[string]struct{}, len(teamMembers))
	for _, login := range teamMembers {
		team[login] = struct{}{}
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{team: team, now: now, logger: logger}
}

// IsTeamMember reports whether login belongs to the configured team.
func (a *Aggregator) IsTeamMember(login string) bool {
	_, ok := a.team[login]
	return ok
}

// DeriveView keeps the pulls updated at or after rangeStart and marks those by non-team
// authors as contributions. Both lists keep the dataset's order.
func (a *Aggregator) DeriveView(dataset domain.GithubDataset, rangeStart time.Time) (domain.DashboardView, error) {
	view := domain.DashboardView{
		Source:        dataset,
		RangeStart:    rangeStart,
		InRange:       []domain.PullRecord{},
		Contributions: []domain.PullRecord{},
	}
	for _, pull := range dataset.Pulls {
		if pull.UpdatedAt.IsZero() {
			return domain.DashboardView{}, fmt.Errorf("%w: pull request #%d has no update time", domain.ErrDecode, pull.Number)
		}
		if pull.UpdatedAt.Before(rangeStart) {
			continue
		}
		view.InRange = append(view.InRange, pull)
		if !a.IsTeamMember(pull.Author) {
			view.Contributions = append(view.Contributions, pull)
		}
	}
	view.Summary = a.summarize(view)

	a.logger.Debug("derived view",
		zap.Time("range_start", rangeStart),
		zap.Int("in_range", len(view.InRange)),
		zap.Int("contributions", len(view.Contributions)))
	return view, nil
}

func (a *Aggregator) summarize(view domain.DashboardView) domain.ViewSummary {
	summary := domain.ViewSummary{
		InRangeCount:      len(view.InRange),
		ContributionCount: len(view.Contributions),
	}
	if len(view.Contributions) == 0 {
		return summary
	}

	now := a.now()
	authors := make(map[string]struct{})
	ages := make(stats.Float64Data, 0, len(view.Contributions))
	for _, pull := range view.Contributions {
		authors[pull.Author] = struct{}{}
		ages = append(ages, now.Sub(pull.UpdatedAt).Hours())
	}
	summary.ContributorCount = len(authors)

	// Errors only occur on empty input, which is ruled out above.
	median, _ := ages.Median()
	mean, _ := ages.Mean()
	summary.MedianContributionAge, _ = stats.Round(median, 1)
	summary.MeanContributionAge, _ = stats.Round(mean, 1)
	return summary
}
