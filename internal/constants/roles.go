package constants

import (
	"database/sql/driver"
	"fmt"
)

// LifecycleState is the persisted state of a lifecycle record. A member with
// no record is active.
type LifecycleState string

const (
	LifecycleResigned          LifecycleState = "RESIGNED"
	LifecycleComebackRequested LifecycleState = "COMEBACK_REQUESTED"
)

func (s LifecycleState) String() string { return string(s) }

func (s LifecycleState) Valid() bool {
	return s == LifecycleResigned || s == LifecycleComebackRequested
}

// Scan implements the sql.Scanner interface
func (s *LifecycleState) Scan(src interface{}) error {
	if src == nil {
		*s = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*s = LifecycleState(v)
	case []byte:
		*s = LifecycleState(v)
	default:
		return fmt.Errorf("LifecycleState: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (s LifecycleState) Value() (driver.Value, error) { return string(s), nil }

// AuditAction names what happened to a member in the audit log.
type AuditAction string

const (
	AuditHire            AuditAction = "HIRE"
	AuditFire            AuditAction = "FIRE"
	AuditPromote         AuditAction = "PROMOTE"
	AuditDemote          AuditAction = "DEMOTE"
	AuditBreak           AuditAction = "BREAK"
	AuditResign          AuditAction = "RESIGN"
	AuditComebackRequest AuditAction = "COMEBACK_REQUEST"
	AuditComebackApprove AuditAction = "COMEBACK_APPROVE"
)
