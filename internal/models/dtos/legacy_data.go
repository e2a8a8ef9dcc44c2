package dtos

// LegacyData is the single JSON file the bot used to keep all its state in.
type LegacyData struct {
	Hierarchy map[string][]string         `json:"hierarchy"`
	Settings  map[string]LegacySettings   `json:"settings"`
	UserData  map[string]LegacyUserRecord `json:"user_data"`
}

type LegacySettings struct {
	BreakRole          string `json:"break_role"`
	ResignRole         string `json:"resign_role"`
	BreakResignChannel string `json:"break_resign_channel"`
	AdminChannel       string `json:"admin_channel"`
}

type LegacyUserRecord struct {
	SavedRoles               []string `json:"saved_roles"`
	ComebackRequestMessageID *string  `json:"comeback_request_message_id"`
	// milliseconds since the epoch
	ResignationTimestamp int64  `json:"resignation_timestamp"`
	GuildID              string `json:"guild_id"`
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Hierarchies int      `json:"hierarchies"`
	Settings    int      `json:"settings"`
	Records     int      `json:"records"`
	Skipped     []string `json:"skipped,omitempty"`
}
