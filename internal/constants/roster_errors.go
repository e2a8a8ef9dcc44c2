package constants

// Roster error codes. Each code belongs to exactly one error kind, assigned
// where the error is built.

// Configuration
const (
	ErrCodeHierarchyNotConfigured = "HIERARCHY_NOT_CONFIGURED"
	ErrCodeHierarchyRoleMissing   = "HIERARCHY_ROLE_MISSING"
	ErrCodeHierarchyTooShort      = "HIERARCHY_TOO_SHORT"
	ErrCodeHierarchyDuplicate     = "HIERARCHY_DUPLICATE_ROLE"
	ErrCodeRoleUnresolvable       = "ROLE_UNRESOLVABLE"
	ErrCodeRoleNotManageable      = "ROLE_NOT_MANAGEABLE"
	ErrCodeSettingsNotConfigured  = "SETTINGS_NOT_CONFIGURED"
	ErrCodeSettingsRoleMissing    = "SETTINGS_ROLE_MISSING"
	ErrCodeSettingsChannelMissing = "SETTINGS_CHANNEL_MISSING"
	ErrCodeGuildReferenceMissing  = "GUILD_REFERENCE_MISSING"
)

// Privilege
const (
	ErrCodeNotAdministrator  = "NOT_ADMINISTRATOR"
	ErrCodeSelfTarget        = "SELF_TARGET"
	ErrCodeMemberNotManaged  = "MEMBER_NOT_MANAGEABLE"
	ErrCodeWrongChannel      = "WRONG_CHANNEL"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
)

// State
const (
	ErrCodeAlreadyHighest    = "ALREADY_HIGHEST"
	ErrCodeNoRankHeld        = "NO_RANK_HELD"
	ErrCodeNotRanked         = "NOT_RANKED"
	ErrCodeAlreadyOnBreak    = "ALREADY_ON_BREAK"
	ErrCodeAlreadyResigned   = "ALREADY_RESIGNED"
	ErrCodeRecordExists      = "LIFECYCLE_RECORD_EXISTS"
	ErrCodeRecordNotFound    = "LIFECYCLE_RECORD_NOT_FOUND"
	ErrCodeMemberNotFound    = "MEMBER_NOT_FOUND"
	ErrCodeUnknownAction     = "UNKNOWN_ACTION"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeTargetOutOfRange  = "TARGET_OUT_OF_RANGE"
	ErrCodeUnknownOperation  = "UNKNOWN_OPERATION"
	ErrCodeChannelNotInGuild = "CHANNEL_NOT_IN_GUILD"
)

// Transient external
const (
	ErrCodePlatformFailure = "PLATFORM_FAILURE"
	ErrCodeStoreFailure    = "STORE_FAILURE"
	ErrCodeLockTimeout     = "LOCK_TIMEOUT"
	ErrCodeRankNotGranted  = "RANK_NOT_GRANTED"
	ErrCodeRankStripped    = "RANK_STRIPPED"
)

// Notification
const (
	ErrCodeDirectMessageFailed = "DIRECT_MESSAGE_FAILED"
	ErrCodeAnnouncementFailed  = "ANNOUNCEMENT_FAILED"
)

var RosterErrorMessages = map[string]string{
	ErrCodeHierarchyNotConfigured: "The role hierarchy has not been set up yet. Please use `/role-hierarchy-setup` first.",
	ErrCodeHierarchyRoleMissing:   "⚠️ **Configuration Error:** a hierarchy role is missing from the server. Please re-run `/role-hierarchy-setup`.",
	ErrCodeHierarchyTooShort:      "Please provide at least two roles (IDs or names) separated by spaces to establish a hierarchy.",
	ErrCodeHierarchyDuplicate:     "Error: the same role appears more than once in the hierarchy.",
	ErrCodeRoleUnresolvable:       "Error: Could not find one of the roles. Please check your input.",
	ErrCodeRoleNotManageable:      "Error: I cannot manage one or more of the selected roles. Ensure my role is higher than all of them.",
	ErrCodeSettingsNotConfigured:  "The Resign/Break system is not configured. Please ask an administrator to use `/resign-and-break-setup` first.",
	ErrCodeSettingsRoleMissing:    "⚠️ **Configuration Error:** the break or resign role is missing from the server. Please re-run `/resign-and-break-setup`.",
	ErrCodeSettingsChannelMissing: "⚠️ **Configuration Error:** the announcement or admin channel is missing from the server. Please re-run `/resign-and-break-setup`.",
	ErrCodeGuildReferenceMissing:  "Error: I cannot find your previous role data or server context. Please contact an admin directly.",

	ErrCodeNotAdministrator:  "You must be an administrator to do this.",
	ErrCodeSelfTarget:        "You cannot use this command on yourself.",
	ErrCodeMemberNotManaged:  "I cannot modify roles for this member. My role must be higher than theirs and all hierarchy roles.",
	ErrCodeWrongChannel:      "Comebacks can only be approved from the configured admin channel.",
	ErrCodeInvalidCredential: "Invalid credentials.",

	ErrCodeAlreadyHighest:    "🚫 This member already holds the highest rank.",
	ErrCodeNoRankHeld:        "🚫 This member does not hold any hierarchy role.",
	ErrCodeNotRanked:         "🚫 You must hold a rank role from the established hierarchy to use the break/resignation system.",
	ErrCodeAlreadyOnBreak:    "🚫 You are already on break.",
	ErrCodeAlreadyResigned:   "🚫 You are already resigned.",
	ErrCodeRecordExists:      "🚫 A resignation is already on file for you.",
	ErrCodeRecordNotFound:    "Error: I cannot find your previous role data or server context. Please contact an admin directly.",
	ErrCodeMemberNotFound:    "Could not find that user in this server.",
	ErrCodeUnknownAction:     "Unknown button action.",
	ErrCodeInvalidRequest:    "Invalid request.",
	ErrCodeTargetOutOfRange:  "Target rank is outside the hierarchy.",
	ErrCodeUnknownOperation:  "Unknown rank operation.",
	ErrCodeChannelNotInGuild: "That channel does not belong to this server.",

	ErrCodePlatformFailure: "❌ An error occurred while trying to manage roles or send messages. Check bot permissions.",
	ErrCodeStoreFailure:    "❌ Could not read or save bot data. Please try again.",
	ErrCodeLockTimeout:     "❌ Another change for this member is still running. Please try again.",
	ErrCodeRankNotGranted:  "❌ The new rank could not be granted, so the member's previous rank was restored. Check bot permissions.",
	ErrCodeRankStripped:    "⚠️ The member's previous rank was removed but the new rank could not be granted, and restoring it failed. They hold no rank now; fix their roles by hand and check bot permissions.",

	ErrCodeDirectMessageFailed: "DM failed (User may have DMs closed).",
	ErrCodeAnnouncementFailed:  "The public announcement could not be posted.",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := RosterErrorMessages[code]; exists {
		return msg
	}
	return "There was an error while executing this command!"
}
