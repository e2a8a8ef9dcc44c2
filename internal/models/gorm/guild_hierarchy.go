package gorm

import "time"

// GuildHierarchy is the ordered staff ladder of one guild, lowest rank first.
type GuildHierarchy struct {
	GuildID   string    `gorm:"column:guild_id;primaryKey"`
	RoleIDs   []string  `gorm:"column:role_ids;type:text;serializer:json"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (GuildHierarchy) TableName() string {
	return "guild_hierarchies"
}
