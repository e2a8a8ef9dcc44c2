package ranks

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyHighest   = errors.New("member is already at the highest rank")
	ErrNoRankHeld       = errors.New("member holds no hierarchy role")
	ErrUnknownOperation = errors.New("unknown rank operation")
)

// Operation is one of the four rank commands.
type Operation string

const (
	OpHire    Operation = "hire"
	OpFire    Operation = "fire"
	OpPromote Operation = "promote"
	OpDemote  Operation = "demote"
)

func (o Operation) String() string { return string(o) }

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	switch o {
	case OpHire, OpFire, OpPromote, OpDemote:
		return true
	default:
		return false
	}
}

// TargetIndex applies the operation policy to the current rank.
//
//	hire    -> 0 regardless of current rank
//	fire    -> -1, refused when nothing is held
//	promote -> current+1 (unranked members land on 0), refused past the top
//	demote  -> current-1 (0 falls to -1), refused when nothing is held
func TargetIndex(op Operation, current int, size int) (int, error) {
	switch op {
	case OpHire:
		return 0, nil
	case OpFire:
		if current == NoRank {
			return 0, ErrNoRankHeld
		}
		return NoRank, nil
	case OpPromote:
		next := current + 1
		if next >= size {
			return 0, ErrAlreadyHighest
		}
		return next, nil
	case OpDemote:
		if current == NoRank {
			return 0, ErrNoRankHeld
		}
		return current - 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
}

// Decide resolves the current rank, applies the operation policy and plans
// the resulting transition.
func Decide(op Operation, held []string, h Hierarchy) (Transition, error) {
	target, err := TargetIndex(op, ResolveRank(held, h), h.Len())
	if err != nil {
		return Transition{}, err
	}
	return Plan(held, h, target)
}
