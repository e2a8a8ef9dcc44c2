package constants

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixHierarchy CachePrefix = "HIERARCHY_"
	CachePrefixSettings  CachePrefix = "SETTINGS_"
	CachePrefixAPIKey    CachePrefix = "API_KEY_"
)

// Lock key prefixes. A lock key is prefix + id parts joined by ':'.
const (
	LockHierarchy = "hierarchy"
	LockSettings  = "settings"
	LockMember    = "member"
	LockLifecycle = "lifecycle"
)

// Embed colours used by the bot's messages.
const (
	ColorBreak            = 0xFFA500
	ColorResign           = 0xDC143C
	ColorComebackRequest  = 0x00FF00
	ColorComebackApproved = 0x32CD32
	ColorPanel            = 0x0099FF
)
