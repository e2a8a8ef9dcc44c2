// Package ranks holds the pure rank logic: resolving a member's current rank
// from the roles they hold and planning the role delta for a rank change.
// Nothing in here talks to Discord or the database.
package ranks

import (
	"errors"
	"fmt"
	"strings"
)

// MinHierarchySize is the smallest hierarchy that has promote/demote semantics.
const MinHierarchySize = 2

// NoRank is the rank index of a member holding no hierarchy role.
const NoRank = -1

var (
	ErrHierarchyTooShort = fmt.Errorf("hierarchy needs at least %d roles", MinHierarchySize)
	ErrDuplicateRole     = errors.New("hierarchy contains a duplicate role")
	ErrEmptyRoleID       = errors.New("hierarchy contains an empty role id")
)

// Hierarchy is an ordered list of role ids, lowest rank first.
type Hierarchy []string

// Len returns the number of ranks.
func (h Hierarchy) Len() int { return len(h) }

// Top is the index of the highest rank.
func (h Hierarchy) Top() int { return len(h) - 1 }

// At returns the role id at idx, or "" when idx is out of range.
func (h Hierarchy) At(idx int) string {
	if idx < 0 || idx >= len(h) {
		return ""
	}
	return h[idx]
}

// IndexOf returns the rank index of roleID or NoRank.
func (h Hierarchy) IndexOf(roleID string) int {
	for i, id := range h {
		if id == roleID {
			return i
		}
	}
	return NoRank
}

// Contains reports whether roleID is part of the hierarchy.
func (h Hierarchy) Contains(roleID string) bool {
	return h.IndexOf(roleID) != NoRank
}

// Validate checks the invariants of a configured hierarchy.
func (h Hierarchy) Validate() error {
	if len(h) < MinHierarchySize {
		return ErrHierarchyTooShort
	}
	seen := make(map[string]struct{}, len(h))
	for _, id := range h {
		if strings.TrimSpace(id) == "" {
			return ErrEmptyRoleID
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRole, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Clone returns a copy safe to hand out of a cache.
func (h Hierarchy) Clone() Hierarchy {
	if h == nil {
		return nil
	}
	out := make(Hierarchy, len(h))
	copy(out, h)
	return out
}
