package gorm

import (
	"time"

	"infinite-experiment/roster/internal/constants"
)

// LifecycleRecord exists while a member is resigned or waiting for comeback
// approval. At most one record per user.
type LifecycleRecord struct {
	UserID              string                   `gorm:"column:user_id;primaryKey"`
	GuildID             string                   `gorm:"column:guild_id;index"`
	SavedRoleIDs        []string                 `gorm:"column:saved_roles;type:text;serializer:json"`
	State               constants.LifecycleState `gorm:"column:state;type:varchar(32)"`
	ComebackChannelID   string                   `gorm:"column:comeback_channel_id"`
	ComebackMessageID   string                   `gorm:"column:comeback_message_id"`
	ApprovalChannelID   string                   `gorm:"column:approval_channel_id"`
	ApprovalMessageID   string                   `gorm:"column:approval_message_id"`
	ResignedAt          time.Time                `gorm:"column:resigned_at"`
	ComebackRequestedAt *time.Time               `gorm:"column:comeback_requested_at"`
	UpdatedAt           time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (LifecycleRecord) TableName() string {
	return "lifecycle_records"
}
