// Package platform describes what Roster needs from the chat platform.
// The Discord adapter lives in internal/discord; tests use platformtest.
package platform

import (
	"context"
	"errors"
	"time"

	"infinite-experiment/roster/internal/actions"
)

var (
	ErrMemberNotFound  = errors.New("member not found in guild")
	ErrRoleNotFound    = errors.New("role not found in guild")
	ErrChannelNotFound = errors.New("channel not found in guild")
	ErrGuildNotFound   = errors.New("guild not found")
	ErrDirectMessage   = errors.New("direct message could not be delivered")
)

type Role struct {
	ID       string
	Name     string
	Position int
	Managed  bool
}

// Mention renders the role as a Discord mention.
func (r Role) Mention() string { return "<@&" + r.ID + ">" }

type Member struct {
	UserID   string
	Username string
	RoleIDs  []string
	IsOwner  bool
}

// Mention renders the member as a Discord mention.
func (m Member) Mention() string { return "<@" + m.UserID + ">" }

// Tag is the display handle used in status messages.
func (m Member) Tag() string {
	if m.Username != "" {
		return m.Username
	}
	return m.UserID
}

// HasRole reports whether the member holds roleID.
func (m Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

type Channel struct {
	ID      string
	GuildID string
	Name    string
}

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

type Button struct {
	Label    string
	Style    ButtonStyle
	Action   actions.Action
	Disabled bool
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
	Footer      string
	Timestamp   time.Time
}

// Message is a platform-neutral outbound message.
type Message struct {
	Content string
	Embeds  []Embed
	Buttons []Button
}

// MessageRef points at a sent message so its buttons can be edited later.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Empty reports whether the reference points nowhere.
func (r MessageRef) Empty() bool { return r.ChannelID == "" || r.MessageID == "" }

// Platform is the chat-platform contract consumed by the services.
type Platform interface {
	GuildName(ctx context.Context, guildID string) (string, error)
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	Roles(ctx context.Context, guildID string) ([]Role, error)
	Channel(ctx context.Context, guildID, channelID string) (*Channel, error)
	Channels(ctx context.Context, guildID string) ([]Channel, error)

	AddRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error
	RemoveRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error

	SendChannelMessage(ctx context.Context, channelID string, msg Message) (MessageRef, error)
	SendDirectMessage(ctx context.Context, userID string, msg Message) (MessageRef, error)
	EditButtons(ctx context.Context, ref MessageRef, buttons []Button) error

	IsAdministrator(ctx context.Context, guildID, userID string) (bool, error)
	CanManageRole(ctx context.Context, guildID, roleID string) (bool, error)
	CanManageMember(ctx context.Context, guildID, userID string) (bool, error)

	// EnsureBotChannelAccess grants the bot the permissions it needs in the
	// channel and denies @everyone mentions there.
	EnsureBotChannelAccess(ctx context.Context, guildID, channelID string) error
}

// FindRole returns the role with id, or ErrRoleNotFound.
func FindRole(roles []Role, id string) (Role, error) {
	for _, r := range roles {
		if r.ID == id {
			return r, nil
		}
	}
	return Role{}, ErrRoleNotFound
}
