package gorm

import (
	"time"

	"infinite-experiment/roster/internal/constants"
)

// RankAuditEntry records one applied role change.
type RankAuditEntry struct {
	ID           string                `gorm:"column:id;primaryKey;type:varchar(36)"`
	GuildID      string                `gorm:"column:guild_id;index"`
	UserID       string                `gorm:"column:user_id;index"`
	ActorID      string                `gorm:"column:actor_id"`
	Action       constants.AuditAction `gorm:"column:action;type:varchar(32)"`
	RemovedRoles []string              `gorm:"column:removed_roles;type:text;serializer:json"`
	AddedRole    string                `gorm:"column:added_role"`
	Reason       string                `gorm:"column:reason"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (RankAuditEntry) TableName() string {
	return "rank_audit_log"
}

// AllModels lists every table managed through AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&GuildHierarchy{},
		&GuildSettings{},
		&LifecycleRecord{},
		&RankAuditEntry{},
	}
}
