package dtos

import "time"

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

// ErrorDetail is attached to error responses built from a roster error.
type ErrorDetail struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

// DMStatus annotates an otherwise successful result with whether the member
// could be notified.
type DMStatus string

const (
	DMSent    DMStatus = "SENT"
	DMFailed  DMStatus = "FAILED"
	DMSkipped DMStatus = "SKIPPED"
)

type RankChangeResponse struct {
	GuildID        string   `json:"guild_id"`
	TargetID       string   `json:"target_id"`
	ActorID        string   `json:"actor_id,omitempty"`
	Operation      string   `json:"operation"`
	Kind           string   `json:"kind"`
	FromIndex      int      `json:"from_index"`
	ToIndex        int      `json:"to_index"`
	RemovedRoleIDs []string `json:"removed_role_ids"`
	AddedRoleID    string   `json:"added_role_id,omitempty"`
	Message        string   `json:"message"`
}

type HierarchyRole struct {
	Index   int    `json:"index"`
	RoleID  string `json:"role_id"`
	Name    string `json:"name,omitempty"`
	Missing bool   `json:"missing,omitempty"`
}

type HierarchyResponse struct {
	GuildID   string          `json:"guild_id"`
	Roles     []HierarchyRole `json:"roles"`
	UpdatedAt time.Time       `json:"updated_at,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type SettingsResponse struct {
	GuildID           string    `json:"guild_id"`
	BreakRoleID       string    `json:"break_role_id"`
	ResignRoleID      string    `json:"resign_role_id"`
	AnnounceChannelID string    `json:"announce_channel_id"`
	AdminChannelID    string    `json:"admin_channel_id"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
	Message           string    `json:"message,omitempty"`
}

// LifecycleResponse is the result of break, resign, comeback request and
// approval.
type LifecycleResponse struct {
	Event          string   `json:"event"`
	GuildID        string   `json:"guild_id"`
	UserID         string   `json:"user_id"`
	State          string   `json:"state"`
	SavedRoleIDs   []string `json:"saved_role_ids,omitempty"`
	DMStatus       DMStatus `json:"dm_status"`
	Announced      bool     `json:"announced"`
	AlreadyPending bool     `json:"already_pending,omitempty"`
	Message        string   `json:"message"`
}

type PanelResponse struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

type ChannelFailure struct {
	ChannelID string `json:"channel_id"`
	Error     string `json:"error"`
}

type FixPermissionsResponse struct {
	Updated []string         `json:"updated"`
	Failed  []ChannelFailure `json:"failed,omitempty"`
	Message string           `json:"message"`
}

// InteractionResponse is what a button click resolved to.
type InteractionResponse struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}
