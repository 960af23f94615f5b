package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/pr-dashboard/internal/cache"
	"github.com/naka-gawa/pr-dashboard/internal/domain"
	"github.com/naka-gawa/pr-dashboard/internal/storage"
)

func newTestDashboard(t *testing.T, fetcher *mockFetcher) *Dashboard {
	clock := func() time.Time { return now }
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	syncer := NewSyncer(fetcher, cache.NewDataCache(store, clock, zap.NewNop()), []string{"vaadin/flow"}, zap.NewNop())
	aggregator := NewAggregator([]string{"vaadin-bot"}, clock, zap.NewNop())
	return NewDashboard(syncer, aggregator, cache.NewSettingsStore(store, zap.NewNop()), 30, clock)
}

func TestDashboard_View(t *testing.T) {
	lookbackStart := time.Date(2026, 9, 19, 0, 0, 0, 0, time.UTC)
	fetcher := new(mockFetcher)
	fetcher.On("FetchRecentPulls", mock.Anything, "vaadin/flow", lookbackStart, mock.Anything).Return([]domain.PullRecord{
		pull(1, "alice", daysAgo(1)),
		pull(2, "vaadin-bot", daysAgo(2)),
		pull(3, "bob", daysAgo(10)),
	}, nil).Once()
	dashboard := newTestDashboard(t, fetcher)

	view, err := dashboard.View(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, numbers(view.InRange))
	assert.Equal(t, []int{1}, numbers(view.Contributions))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), view.RangeStart)

	// Widening the range reuses the cached dataset.
	view, err = dashboard.View(context.Background(), 30, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, numbers(view.InRange))
	assert.Equal(t, []int{1, 3}, numbers(view.Contributions))
	fetcher.AssertExpectations(t)
}

func TestDashboard_View_InvalidRange(t *testing.T) {
	dashboard := newTestDashboard(t, new(mockFetcher))
	for _, days := range []int{0, -1, 31} {
		_, err := dashboard.View(context.Background(), days, nil)
		assert.ErrorIs(t, err, ErrInvalidRange)
	}
}

func TestDashboard_Settings(t *testing.T) {
	dashboard := newTestDashboard(t, new(mockFetcher))
	ctx := context.Background()

	settings, err := dashboard.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, settings.Theme)

	require.NoError(t, dashboard.SaveSettings(ctx, domain.Settings{Theme: domain.ThemeDark}))
	settings, err = dashboard.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, settings.Theme)
}
