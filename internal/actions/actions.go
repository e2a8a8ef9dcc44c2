// Package actions encodes and decodes the custom ids carried by interactive
// buttons. The wire strings match the ids of buttons already posted in guilds.
package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrUnknownAction = errors.New("unknown button action")
	ErrInvalidUserID = errors.New("button action carries an invalid user id")
)

// Kind identifies a button action.
type Kind int

const (
	KindTakeBreak Kind = iota + 1
	KindResign
	KindComebackRequest
	KindApproveComeback
)

const (
	idTakeBreak             = "break_button"
	idResign                = "resign_button"
	idComebackRequest       = "comeback_request"
	approveComebackIDPrefix = "approve_comeback_"
)

func (k Kind) String() string {
	switch k {
	case KindTakeBreak:
		return "take_break"
	case KindResign:
		return "resign"
	case KindComebackRequest:
		return "comeback_request"
	case KindApproveComeback:
		return "approve_comeback"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is a decoded button press. UserID is set only for KindApproveComeback.
type Action struct {
	Kind   Kind
	UserID string
}

func TakeBreak() Action       { return Action{Kind: KindTakeBreak} }
func Resign() Action          { return Action{Kind: KindResign} }
func ComebackRequest() Action { return Action{Kind: KindComebackRequest} }

// ApproveComeback builds the admin-side approval action for userID.
func ApproveComeback(userID string) Action {
	return Action{Kind: KindApproveComeback, UserID: userID}
}

// CustomID renders the action as a button custom id.
func (a Action) CustomID() string {
	switch a.Kind {
	case KindTakeBreak:
		return idTakeBreak
	case KindResign:
		return idResign
	case KindComebackRequest:
		return idComebackRequest
	case KindApproveComeback:
		return approveComebackIDPrefix + a.UserID
	default:
		return ""
	}
}

// Decode parses a button custom id. It is the only place custom ids are
// inspected; callers switch on the returned Kind.
func Decode(customID string) (Action, error) {
	switch customID {
	case idTakeBreak:
		return TakeBreak(), nil
	case idResign:
		return Resign(), nil
	case idComebackRequest:
		return ComebackRequest(), nil
	}

	if rest, ok := strings.CutPrefix(customID, approveComebackIDPrefix); ok {
		if !ValidSnowflake(rest) {
			return Action{}, fmt.Errorf("%w: %q", ErrInvalidUserID, rest)
		}
		return ApproveComeback(rest), nil
	}
	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, customID)
}

// ValidSnowflake reports whether id looks like a Discord snowflake.
func ValidSnowflake(id string) bool {
	if id == "" {
		return false
	}
	sf, err := snowflake.ParseString(id)
	return err == nil && sf > 0
}

// ParseMention strips user (<@id>, <@!id>) and role (<@&id>) mention syntax.
// Plain ids pass through unchanged.
func ParseMention(token string) string {
	t := strings.TrimSpace(token)
	if !strings.HasPrefix(t, "<@") || !strings.HasSuffix(t, ">") {
		return t
	}
	t = strings.TrimSuffix(strings.TrimPrefix(t, "<@"), ">")
	t = strings.TrimPrefix(t, "!")
	t = strings.TrimPrefix(t, "&")
	return t
}
