package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/naka-gawa/pr-dashboard/internal/domain"
	"github.com/naka-gawa/pr-dashboard/internal/gateway"
)

// ErrInvalidRange is returned for a range outside 1..lookback days.
var ErrInvalidRange = errors.New("invalid range")

// SettingsRepository persists user settings.
type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}

// Dashboard is what the presentation layer talks to. It turns day counts into
// cutoffs and wires the Syncer, the Aggregator and the settings together.
type Dashboard struct {
	syncer       *Syncer
	aggregator   *Aggregator
	settings     SettingsRepository
	lookbackDays int
	now          func() time.Time
}

func NewDashboard(syncer *Syncer, aggregator *Aggregator, settings SettingsRepository, lookbackDays int, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{
		syncer:       syncer,
		aggregator:   aggregator,
		settings:     settings,
		lookbackDays: lookbackDays,
		now:          now,
	}
}

// LookbackDays is the widest selectable range.
func (d *Dashboard) LookbackDays() int { return d.lookbackDays }

// Sync makes sure a dataset covering the whole lookback window is available.
func (d *Dashboard) Sync(ctx context.Context, forceRefresh bool, onProgress gateway.ProgressFunc) (domain.GithubDataset, error) {
	return d.syncer.EnsureFresh(ctx, forceRefresh, d.rangeStart(d.lookbackDays), onProgress)
}

// View derives the dashboard for the last days days, syncing first if the cache is cold.
func (d *Dashboard) View(ctx context.Context, days int, onProgress gateway.ProgressFunc) (domain.DashboardView, error) {
	if days < 1 || days > d.lookbackDays {
		return domain.DashboardView{}, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidRange, d.lookbackDays, days)
	}
	dataset, err := d.Sync(ctx, false, onProgress)
	if err != nil {
		return domain.DashboardView{}, err
	}
	return d.aggregator.DeriveView(dataset, d.rangeStart(days))
}

func (d *Dashboard) Settings(ctx context.Context) (domain.Settings, error) {
	return d.settings.Load(ctx)
}

func (d *Dashboard) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return d.settings.Save(ctx, settings)
}

// rangeStart is midnight, local time, days days ago.
func (d *Dashboard) rangeStart(days int) time.Time {
	t := d.now().AddDate(0, 0, -days)
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}
