// Package cache persists the last fetched dataset for the rest of the day, and the
// user's settings indefinitely, in the two slots of a storage.Store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/naka-gawa/pr-dashboard/internal/domain"
	"github.com/naka-gawa/pr-dashboard/internal/storage"
)

const (
	DataKey     = "githubData"
	SettingsKey = "settings"
)

// Token is the cache-validity stamp for t: the Unix milliseconds of midnight of t's
// calendar day in t's location. A dataset saved on one day stops matching at the next midnight.
func Token(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).UnixMilli()
}

// DataCache stores a single GithubDataset that is valid until the end of the day it was saved.
type DataCache struct {
	store  storage.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewDataCache(store storage.Store, now func() time.Time, logger *zap.Logger) *DataCache {
	if now == nil {
		now = time.Now
	}
	return &DataCache{store: store, now: now, logger: logger}
}

// Save stamps dataset with today's token and overwrites the slot.
func (c *DataCache) Save(ctx context.Context, dataset *domain.GithubDataset) error {
	dataset.CacheStamp = Token(c.now())
	data, err := json.Marshal(dataset)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	if err := c.store.Put(ctx, DataKey, data); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	c.logger.Debug("dataset cached", zap.Int("pulls", len(dataset.Pulls)), zap.Int64("stamp", dataset.CacheStamp))
	return nil
}

// Load returns the cached dataset if it was saved today. Missing, unreadable,
// corrupt and stale entries all report false.
func (c *DataCache) Load(ctx context.Context) (*domain.GithubDataset, bool) {
	data, err := c.store.Get(ctx, DataKey)
	if errors.Is(err, storage.ErrNotFound) {
		c.logger.Debug("cache miss: nothing cached")
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache miss: failed to read cached dataset", zap.Error(err))
		return nil, false
	}

	var dataset domain.GithubDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		c.logger.Warn("cache miss: cached dataset is corrupt", zap.Error(err))
		return nil, false
	}
	if want := Token(c.now()); dataset.CacheStamp != want {
		c.logger.Debug("cache miss: cached dataset is stale", zap.Int64("stamp", dataset.CacheStamp), zap.Int64("today", want))
		return nil, false
	}
	return &dataset, true
}

// SettingsStore keeps user settings. They never expire.
type SettingsStore struct {
	store  storage.Store
	logger *zap.Logger
}

func NewSettingsStore(store storage.Store, logger *zap.Logger) *SettingsStore {
	return &SettingsStore{store: store, logger: logger}
}

func (s *SettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	if _, err := domain.ParseTheme(string(settings.Theme)); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.Put(ctx, SettingsKey, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Load returns the saved settings, or the defaults when none are saved or they cannot be parsed.
// Only a failing store is reported as an error.
func (s *SettingsStore) Load(ctx context.Context) (domain.Settings, error) {
	data, err := s.store.Get(ctx, SettingsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		s.logger.Warn("ignoring corrupt settings", zap.Error(err))
		return domain.DefaultSettings(), nil
	}
	if _, err := domain.ParseTheme(string(settings.Theme)); err != nil {
		s.logger.Warn("ignoring unknown theme", zap.String("theme", string(settings.Theme)))
		settings.Theme = domain.ThemeLight
	}
	return settings, nil
}
