package services

import (
	"context"
	"time"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/metrics"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/ranks"
)

// ConfigStore is the read-through cache in front of the hierarchy and
// settings tables. Missing configuration is not cached.
type ConfigStore struct {
	hierarchies *repositories.HierarchyRepository
	settings    *repositories.SettingsRepository
	cache       common.CacheInterface
	ttl         time.Duration
	metrics     *metrics.MetricsRegistry
}

func NewConfigStore(
	hierarchies *repositories.HierarchyRepository,
	settings *repositories.SettingsRepository,
	cache common.CacheInterface,
	ttl time.Duration,
	reg *metrics.MetricsRegistry,
) *ConfigStore {
	return &ConfigStore{
		hierarchies: hierarchies,
		settings:    settings,
		cache:       cache,
		ttl:         ttl,
		metrics:     reg,
	}
}

func hierarchyKey(guildID string) string { return string(constants.CachePrefixHierarchy) + guildID }
func settingsKey(guildID string) string  { return string(constants.CachePrefixSettings) + guildID }

// Hierarchy returns nil when the guild has none.
func (s *ConfigStore) Hierarchy(ctx context.Context, guildID string) (ranks.Hierarchy, error) {
	key := hierarchyKey(guildID)
	if val, ok := s.cache.Get(key); ok {
		if ids, ok := common.DecodeCached[[]string](val); ok && len(ids) > 0 {
			s.hit("hierarchy")
			return ranks.Hierarchy(ids), nil
		}
	}
	s.miss("hierarchy")

	row, err := s.hierarchies.Get(ctx, guildID)
	if err != nil {
		return nil, storeError(err)
	}
	if row == nil || len(row.RoleIDs) == 0 {
		return nil, nil
	}
	s.cache.Set(key, row.RoleIDs, s.ttl)
	return ranks.Hierarchy(row.RoleIDs).Clone(), nil
}

func (s *ConfigStore) SaveHierarchy(ctx context.Context, guildID string, h ranks.Hierarchy) error {
	if err := s.hierarchies.Save(ctx, &gormModels.GuildHierarchy{GuildID: guildID, RoleIDs: h.Clone()}); err != nil {
		return storeError(err)
	}
	s.cache.Delete(hierarchyKey(guildID))
	return nil
}

// Settings returns nil when break/resign has not been set up.
func (s *ConfigStore) Settings(ctx context.Context, guildID string) (*gormModels.GuildSettings, error) {
	key := settingsKey(guildID)
	if val, ok := s.cache.Get(key); ok {
		if cached, ok := common.DecodeCached[gormModels.GuildSettings](val); ok && cached.GuildID != "" {
			s.hit("settings")
			return &cached, nil
		}
	}
	s.miss("settings")

	row, err := s.settings.Get(ctx, guildID)
	if err != nil {
		return nil, storeError(err)
	}
	if row == nil {
		return nil, nil
	}
	s.cache.Set(key, *row, s.ttl)
	return row, nil
}

func (s *ConfigStore) SaveSettings(ctx context.Context, settings *gormModels.GuildSettings) error {
	if err := s.settings.Save(ctx, settings); err != nil {
		return storeError(err)
	}
	s.cache.Delete(settingsKey(settings.GuildID))
	return nil
}

func (s *ConfigStore) hit(pattern string) {
	if s.metrics != nil {
		s.metrics.CacheHitsTotal.WithLabelValues(pattern).Inc()
	}
}

func (s *ConfigStore) miss(pattern string) {
	if s.metrics != nil {
		s.metrics.CacheMissesTotal.WithLabelValues(pattern).Inc()
	}
}
