package gorm

import "time"

// GuildSettings holds the break/resign setup of a guild.
type GuildSettings struct {
	GuildID           string    `gorm:"column:guild_id;primaryKey" json:"guild_id"`
	BreakRoleID       string    `gorm:"column:break_role_id" json:"break_role_id"`
	ResignRoleID      string    `gorm:"column:resign_role_id" json:"resign_role_id"`
	AnnounceChannelID string    `gorm:"column:announce_channel_id" json:"announce_channel_id"`
	AdminChannelID    string    `gorm:"column:admin_channel_id" json:"admin_channel_id"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GuildSettings) TableName() string {
	return "guild_settings"
}

// Complete reports whether every field the workflow needs is set.
func (s GuildSettings) Complete() bool {
	return s.BreakRoleID != "" && s.ResignRoleID != "" && s.AnnounceChannelID != "" && s.AdminChannelID != ""
}
