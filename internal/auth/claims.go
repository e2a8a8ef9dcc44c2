package auth

// UserClaims identifies who is calling and for which guild.
type UserClaims interface {
	Source() string
	DiscordUserID() string
	DiscordServerID() string
}

// ServiceClaims come from a Bearer token minted for the bot front end.
type ServiceClaims struct {
	TokenID string
	GuildID string
	UserID  string
	Subject string
}

func (c *ServiceClaims) Source() string          { return "JWT" }
func (c *ServiceClaims) DiscordUserID() string   { return c.UserID }
func (c *ServiceClaims) DiscordServerID() string { return c.GuildID }

// APIKeyClaims come from an X-API-Key request; the guild and user are taken
// from the X-Server-Id and X-Discord-Id headers.
type APIKeyClaims struct {
	DiscordUIDVal      string
	DiscordServerIDVal string
}

func (c *APIKeyClaims) Source() string          { return "API_KEY" }
func (c *APIKeyClaims) DiscordUserID() string   { return c.DiscordUIDVal }
func (c *APIKeyClaims) DiscordServerID() string { return c.DiscordServerIDVal }
