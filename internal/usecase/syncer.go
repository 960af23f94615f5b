package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/pr-dashboard/internal/domain"
	"github.com/naka-gawa/pr-dashboard/internal/gateway"
)

// DatasetCache is the persistence the Syncer needs from the cache package.
type DatasetCache interface {
	Load(ctx context.Context) (*domain.GithubDataset, bool)
	Save(ctx context.Context, dataset *domain.GithubDataset) error
}

// Syncer keeps the cached dataset fresh. It fetches every configured repository and
// replaces the cache only when all of them succeed.
type Syncer struct {
	fetcher      gateway.Fetcher
	cache        DatasetCache
	repositories []string
	parallel     bool
	logger       *zap.Logger
}

// SyncerOption customizes a Syncer.
type SyncerOption func(*Syncer)

// WithParallelFetch fetches repositories concurrently. The merged dataset is the same
// as with sequential fetching; only the order of progress messages differs.
func WithParallelFetch(parallel bool) SyncerOption {
	return func(s *Syncer) { s.parallel = parallel }
}

// NewSyncer creates a Syncer for repositories, fetched and merged in the given order.
func NewSyncer(fetcher gateway.Fetcher, cache DatasetCache, repositories []string, logger *zap.Logger, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		fetcher:      fetcher,
		cache:        cache,
		repositories: append([]string(nil), repositories...),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureFresh returns today's cached dataset unless forceRefresh is set or there is none,
// in which case it fetches all repositories, caches the merged result and returns it.
// Any fetch failure aborts the refresh and leaves the cache as it was.
func (s *Syncer) EnsureFresh(ctx context.Context, forceRefresh bool, cutoff time.Time, onProgress gateway.ProgressFunc) (domain.GithubDataset, error) {
	if !forceRefresh {
		if cached, ok := s.cache.Load(ctx); ok {
			s.logger.Info("using cached dataset", zap.Int("pulls", len(cached.Pulls)))
			return *cached, nil
		}
	}

	s.logger.Info("Usecase: Starting refresh...", zap.Int("repositories", len(s.repositories)), zap.Time("cutoff", cutoff))
	var (
		perRepo [][]domain.PullRecord
		err     error
	)
	if s.parallel {
		perRepo, err = s.fetchParallel(ctx, cutoff, onProgress)
	} else {
		perRepo, err = s.fetchSequential(ctx, cutoff, onProgress)
	}
	if err != nil {
		s.logger.Error("refresh aborted", zap.Error(err))
		return domain.GithubDataset{}, err
	}

	s.logger.Debug("merging pull requests")
	dataset := domain.GithubDataset{
		StartDate: cutoff,
		Pulls:     mergePulls(perRepo),
	}
	if err := s.cache.Save(ctx, &dataset); err != nil {
		// The fetched data is still good; it just has to be fetched again next time.
		s.logger.Warn("failed to cache dataset", zap.Error(err))
	}
	s.logger.Info("Usecase: Refresh complete.", zap.Int("pulls", len(dataset.Pulls)))
	return dataset, nil
}

func (s *Syncer) fetchSequential(ctx context.Context, cutoff time.Time, onProgress gateway.ProgressFunc) ([][]domain.PullRecord, error) {
	perRepo := make([][]domain.PullRecord, len(s.repositories))
	for i, repo := range s.repositories {
		s.logger.Debug("fetching repository", zap.String("repository", repo), zap.Int("index", i+1), zap.Int("of", len(s.repositories)))
		pulls, err := s.fetcher.FetchRecentPulls(ctx, repo, cutoff, onProgress)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", repo, err)
		}
		perRepo[i] = pulls
	}
	return perRepo, nil
}

func (s *Syncer) fetchParallel(ctx context.Context, cutoff time.Time, onProgress gateway.ProgressFunc) ([][]domain.PullRecord, error) {
	var mu sync.Mutex
	progress := func(status string) {
		if onProgress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onProgress(status)
	}

	perRepo := make([][]domain.PullRecord, len(s.repositories))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, repo := range s.repositories {
		eg.Go(func() error {
			pulls, err := s.fetcher.FetchRecentPulls(egCtx, repo, cutoff, progress)
			if err != nil {
				return fmt.Errorf("failed to fetch %s: %w", repo, err)
			}
			perRepo[i] = pulls
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return perRepo, nil
}

// mergePulls concatenates per-repository results in configured order and sorts them
// newest first. Equal update times keep that concatenation order.
func mergePulls(perRepo [][]domain.PullRecord) []domain.PullRecord {
	merged := []domain.PullRecord{}
	for _, pulls := range perRepo {
		merged = append(merged, pulls...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})
	return merged
}
