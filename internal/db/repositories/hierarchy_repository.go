package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModels "infinite-experiment/roster/internal/models/gorm"
)

// HierarchyRepository stores one ordered role ladder per guild.
type HierarchyRepository struct {
	db *gorm.DB
}

func NewHierarchyRepository(db *gorm.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

// Get returns nil, nil when the guild has no hierarchy.
func (r *HierarchyRepository) Get(ctx context.Context, guildID string) (*gormModels.GuildHierarchy, error) {
	var h gormModels.GuildHierarchy

	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&h).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch hierarchy: %w", err)
	}

	return &h, nil
}

// Save replaces the guild's hierarchy wholesale.
func (r *HierarchyRepository) Save(ctx context.Context, h *gormModels.GuildHierarchy) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role_ids", "updated_at"}),
		}).
		Create(h).Error
	if err != nil {
		return fmt.Errorf("failed to save hierarchy: %w", err)
	}
	return nil
}

// GuildIDs lists every guild with a stored hierarchy.
func (r *HierarchyRepository) GuildIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&gormModels.GuildHierarchy{}).
		Order("guild_id").
		Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hierarchy guilds: %w", err)
	}
	return ids, nil
}

func (r *HierarchyRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&gormModels.GuildHierarchy{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count hierarchies: %w", err)
	}
	return n, nil
}
