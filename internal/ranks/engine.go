package ranks

import (
	"errors"
	"fmt"
)

var ErrTargetOutOfRange = errors.New("target rank is outside the hierarchy")

// StatusKind tells whether a transition leaves the member with a rank.
type StatusKind string

const (
	StatusRankSet    StatusKind = "RANK_SET"
	StatusAllRemoved StatusKind = "ALL_REMOVED"
)

// Transition is the role delta for one rank change. Removals are applied
// before the addition.
type Transition struct {
	From    int
	To      int
	Removed []string
	Added   string
	Kind    StatusKind
}

// Noop reports whether applying the transition would not touch any role.
func (t Transition) Noop() bool {
	return len(t.Removed) == 0 && t.Added == ""
}

// Plan computes the delta that moves a member holding held to rank target.
// Every held hierarchy role is removed, not only the current rank, so a
// member that started with several hierarchy roles ends up with at most one.
func Plan(held []string, h Hierarchy, target int) (Transition, error) {
	if target < NoRank || target >= h.Len() {
		return Transition{}, fmt.Errorf("%w: %d (hierarchy has %d roles)", ErrTargetOutOfRange, target, h.Len())
	}

	t := Transition{
		From:    ResolveRank(held, h),
		To:      target,
		Removed: HeldRoles(held, h),
		Kind:    StatusAllRemoved,
	}
	if target != NoRank {
		t.Added = h[target]
		t.Kind = StatusRankSet
	}
	return t, nil
}

// Apply returns held with the transition applied. Used to predict the
// resulting role set without calling the platform.
func (t Transition) Apply(held []string) []string {
	removed := toSet(t.Removed)
	out := make([]string, 0, len(held)+1)
	for _, id := range held {
		if _, drop := removed[id]; drop || id == t.Added {
			continue
		}
		out = append(out, id)
	}
	if t.Added != "" {
		out = append(out, t.Added)
	}
	return out
}
