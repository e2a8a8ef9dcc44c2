package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	gormModels "infinite-experiment/roster/internal/models/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores e. Entries carry their own id so a redelivered stream
// message is written once.
func (r *AuditRepository) Insert(ctx context.Context, e *gormModels.RankAuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(e).Error
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// ListByUser returns the newest entries for a member first.
func (r *AuditRepository) ListByUser(ctx context.Context, guildID, userID string, limit int) ([]gormModels.RankAuditEntry, error) {
	var entries []gormModels.RankAuditEntry

	q := r.db.WithContext(ctx).
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
