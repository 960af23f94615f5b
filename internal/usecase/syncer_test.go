package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/naka-gawa/pr-dashboard/internal/cache"
	"github.com/naka-gawa/pr-dashboard/internal/domain"
	"github.com/naka-gawa/pr-dashboard/internal/gateway"
	"github.com/naka-gawa/pr-dashboard/internal/storage"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the GitHub gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchRecentPulls(ctx context.Context, repository string, cutoff time.Time, onProgress gateway.ProgressFunc) ([]domain.PullRecord, error) {
	args := m.Called(ctx, repository, cutoff, onProgress)
	if onProgress != nil {
		onProgress(fmt.Sprintf("Fetching %s pull requests, page 1", repository))
	}
	// We need to handle the case where the returned slice is nil (e.g., when an error occurs).
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PullRecord), args.Error(1)
}

func newTestCache(t *testing.T, clock func() time.Time) *cache.DataCache {
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	return cache.NewDataCache(store, clock, zap.NewNop())
}

var repositories = []string{"vaadin/flow", "vaadin/hilla"}

func TestSyncer_EnsureFresh(t *testing.T) {
	cutoff := daysAgo(30)
	flowPulls := []domain.PullRecord{pull(10, "alice", now.Add(-1*time.Hour)), pull(11, "bob", now.Add(-5*time.Hour))}
	hillaPulls := []domain.PullRecord{pull(20, "carol", now.Add(-3*time.Hour)), pull(21, "vaadin-bot", now.Add(-5*time.Hour))}

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			fetcher := new(mockFetcher)
			fetcher.On("FetchRecentPulls", mock.Anything, "vaadin/flow", cutoff, mock.Anything).Return(flowPulls, nil).Once()
			fetcher.On("FetchRecentPulls", mock.Anything, "vaadin/hilla", cutoff, mock.Anything).Return(hillaPulls, nil).Once()

			syncer := NewSyncer(fetcher, newTestCache(t, func() time.Time { return now }), repositories, zap.NewNop(), WithParallelFetch(parallel))

			var progress []string
			dataset, err := syncer.EnsureFresh(context.Background(), false, cutoff, func(s string) { progress = append(progress, s) })

			require.NoError(t, err)
			// Equal timestamps keep configured repository order: flow #11 before hilla #21.
			assert.Equal(t, []int{10, 20, 11, 21}, numbers(dataset.Pulls))
			assert.Equal(t, cutoff, dataset.StartDate)
			assert.Equal(t, cache.Token(now), dataset.CacheStamp)
			assert.Len(t, progress, 2)
			if !parallel {
				assert.Equal(t, []string{
					"Fetching vaadin/flow pull requests, page 1",
					"Fetching vaadin/hilla pull requests, page 1",
				}, progress)
			}
			fetcher.AssertExpectations(t)
		})
	}
}

func TestSyncer_EnsureFresh_UsesCacheWithinTheDay(t *testing.T) {
	cutoff := daysAgo(30)
	clock := now
	fetcher := new(mockFetcher)
	fetcher.On("FetchRecentPulls", mock.Anything, mock.Anything, cutoff, mock.Anything).Return([]domain.PullRecord{pull(1, "alice", now)}, nil)
	syncer := NewSyncer(fetcher, newTestCache(t, func() time.Time { return clock }), repositories, zap.NewNop())

	first, err := syncer.EnsureFresh(context.Background(), false, cutoff, nil)
	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "FetchRecentPulls", 2)

	clock = now.Add(6 * time.Hour)
	second, err := syncer.EnsureFresh(context.Background(), false, cutoff, nil)
	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "FetchRecentPulls", 2)
	assert.Equal(t, numbers(first.Pulls), numbers(second.Pulls))
	assert.Equal(t, first.CacheStamp, second.CacheStamp)

	// A new day invalidates the cache.
	clock = now.AddDate(0, 0, 1)
	_, err = syncer.EnsureFresh(context.Background(), false, cutoff, nil)
	require.NoError(t, err)
	fetcher.AssertNumberOfCalls(t, "FetchRecentPulls", 4)
}

func TestSyncer_EnsureFresh_ForceRefreshBypassesCache(t *testing.T) {
	cutoff := daysAgo(30)
	fetcher := new(mockFetcher)
	fetcher.On("FetchRecentPulls", mock.Anything, mock.Anything, cutoff, mock.Anything).Return([]domain.PullRecord{}, nil)
	syncer := NewSyncer(fetcher, newTestCache(t, func() time.Time { return now }), repositories, zap.NewNop())

	_, err := syncer.EnsureFresh(context.Background(), false, cutoff, nil)
	require.NoError(t, err)
	dataset, err := syncer.EnsureFresh(context.Background(), true, cutoff, nil)
	require.NoError(t, err)

	fetcher.AssertNumberOfCalls(t, "FetchRecentPulls", 4)
	assert.Empty(t, dataset.Pulls)
	assert.NotNil(t, dataset.Pulls)
}

func TestSyncer_EnsureFresh_FailureKeepsPreviousCache(t *testing.T) {
	cutoff := daysAgo(30)
	dataCache := newTestCache(t, func() time.Time { return now })
	previous := domain.GithubDataset{StartDate: cutoff, Pulls: []domain.PullRecord{pull(99, "alice", daysAgo(2))}}
	require.NoError(t, dataCache.Save(context.Background(), &previous))

	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			fetcher := new(mockFetcher)
			fetcher.On("FetchRecentPulls", mock.Anything, "vaadin/flow", cutoff, mock.Anything).Return([]domain.PullRecord{pull(1, "alice", now)}, nil)
			fetcher.On("FetchRecentPulls", mock.Anything, "vaadin/hilla", cutoff, mock.Anything).
				Return(nil, fmt.Errorf("%w: connection reset", domain.ErrNetwork))
			syncer := NewSyncer(fetcher, dataCache, repositories, zap.NewNop(), WithParallelFetch(parallel))

			dataset, err := syncer.EnsureFresh(context.Background(), true, cutoff, nil)

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrNetwork))
			assert.Contains(t, err.Error(), "vaadin/hilla")
			assert.Empty(t, dataset.Pulls)

			cached, ok := dataCache.Load(context.Background())
			require.True(t, ok)
			assert.Equal(t, []int{99}, numbers(cached.Pulls))
		})
	}
}

func TestSyncer_EnsureFresh_FirstFailureStopsSequentialFetch(t *testing.T) {
	cutoff := daysAgo(30)
	fetcher := new(mockFetcher)
	fetcher.On("FetchRecentPulls", mock.Anything, "vaadin/flow", cutoff, mock.Anything).
		Return(nil, fmt.Errorf("%w: bad payload", domain.ErrDecode))
	syncer := NewSyncer(fetcher, newTestCache(t, func() time.Time { return now }), repositories, zap.NewNop())

	_, err := syncer.EnsureFresh(context.Background(), false, cutoff, nil)

	assert.ErrorIs(t, err, domain.ErrDecode)
	fetcher.AssertNotCalled(t, "FetchRecentPulls", mock.Anything, "vaadin/hilla", mock.Anything, mock.Anything)
}

// failingCache always misses and never saves.
type failingCache struct{}

func (failingCache) Load(context.Context) (*domain.GithubDataset, bool) { return nil, false }
func (failingCache) Save(context.Context, *domain.GithubDataset) error {
	return errors.New("read-only file system")
}

func TestSyncer_EnsureFresh_CacheWriteFailureStillReturnsData(t *testing.T) {
	cutoff := daysAgo(30)
	fetcher := new(mockFetcher)
	fetcher.On("FetchRecentPulls", mock.Anything, mock.Anything, cutoff, mock.Anything).Return([]domain.PullRecord{pull(1, "alice", now)}, nil)
	syncer := NewSyncer(fetcher, failingCache{}, []string{"vaadin/flow"}, zap.NewNop())

	dataset, err := syncer.EnsureFresh(context.Background(), false, cutoff, nil)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, numbers(dataset.Pulls))
}

func TestMergePulls(t *testing.T) {
	same := now.Add(-time.Hour)
	merged := mergePulls([][]domain.PullRecord{
		{pull(1, "a", same), pull(2, "a", daysAgo(3))},
		{pull(3, "b", now), pull(4, "b", same)},
		nil,
		{pull(5, "c", same)},
	})
	assert.Equal(t, []int{3, 1, 4, 5, 2}, numbers(merged))
}
