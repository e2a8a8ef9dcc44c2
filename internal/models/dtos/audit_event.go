package dtos

import "time"

// AuditEvent describes an applied role change. It travels through the audit
// stream as JSON before it lands in rank_audit_log.
type AuditEvent struct {
	ID           string    `json:"id"`
	GuildID      string    `json:"guild_id"`
	UserID       string    `json:"user_id"`
	ActorID      string    `json:"actor_id,omitempty"`
	Action       string    `json:"action"`
	RemovedRoles []string  `json:"removed_roles,omitempty"`
	AddedRole    string    `json:"added_role,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}
