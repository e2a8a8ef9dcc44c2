package dtos

// RankChangeRequest is the body of POST /ranks/{operation}.
type RankChangeRequest struct {
	TargetID string `json:"target_id"`
	Reason   string `json:"reason,omitempty"`
}

// HierarchySetupRequest lists role tokens lowest rank first. A token is a
// role id, a <@&id> mention or a role name.
type HierarchySetupRequest struct {
	Roles []string `json:"roles"`
}

type WorkflowSettingsRequest struct {
	BreakRoleID       string `json:"break_role_id"`
	ResignRoleID      string `json:"resign_role_id"`
	AnnounceChannelID string `json:"announce_channel_id"`
	AdminChannelID    string `json:"admin_channel_id"`
}

// ButtonInteractionRequest carries a clicked button's custom id. ChannelID is
// where the click happened; empty for direct messages.
type ButtonInteractionRequest struct {
	CustomID  string `json:"custom_id"`
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id,omitempty"`
}

type PanelRequest struct {
	ChannelID string `json:"channel_id"`
}
