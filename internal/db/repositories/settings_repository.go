package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModels "infinite-experiment/roster/internal/models/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns nil, nil when break/resign has not been set up.
func (r *SettingsRepository) Get(ctx context.Context, guildID string) (*gormModels.GuildSettings, error) {
	var s gormModels.GuildSettings

	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&s).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	return &s, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *gormModels.GuildSettings) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"break_role_id", "resign_role_id", "announce_channel_id", "admin_channel_id", "updated_at",
			}),
		}).
		Create(s).Error
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) GuildIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&gormModels.GuildSettings{}).
		Order("guild_id").
		Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list settings guilds: %w", err)
	}
	return ids, nil
}
