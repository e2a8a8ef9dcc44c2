package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModels "infinite-experiment/roster/internal/models/gorm"
)

// ErrRecordExists is returned by Create when the user already has a record,
// in any guild.
var ErrRecordExists = errors.New("lifecycle record already exists")

// LifecycleRepository stores resign/comeback records keyed by user id.
type LifecycleRepository struct {
	db *gorm.DB
}

func NewLifecycleRepository(db *gorm.DB) *LifecycleRepository {
	return &LifecycleRepository{db: db}
}

// Get returns nil, nil when the user has no record.
func (r *LifecycleRepository) Get(ctx context.Context, userID string) (*gormModels.LifecycleRecord, error) {
	var rec gormModels.LifecycleRecord

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&rec).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch lifecycle record: %w", err)
	}

	return &rec, nil
}

// Create inserts rec and fails with ErrRecordExists instead of overwriting.
func (r *LifecycleRepository) Create(ctx context.Context, rec *gormModels.LifecycleRecord) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		return fmt.Errorf("failed to create lifecycle record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordExists
	}
	return nil
}

func (r *LifecycleRepository) Update(ctx context.Context, rec *gormModels.LifecycleRecord) error {
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update lifecycle record: %w", err)
	}
	return nil
}

// Delete reports whether a record was removed.
func (r *LifecycleRepository) Delete(ctx context.Context, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&gormModels.LifecycleRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete lifecycle record: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListByGuild returns the guild's pending records, oldest first.
func (r *LifecycleRepository) ListByGuild(ctx context.Context, guildID string) ([]gormModels.LifecycleRecord, error) {
	var recs []gormModels.LifecycleRecord

	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("resigned_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lifecycle records: %w", err)
	}
	return recs, nil
}
