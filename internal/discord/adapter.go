// Package discord implements platform.Platform over the Discord REST API.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/platform"
)

// botChannelAllow is what fix-permissions grants the bot in every channel.
const botChannelAllow = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionEmbedLinks |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionAddReactions

// Adapter wraps a discordgo session. Guild roles are cached briefly since
// every rank operation checks positions.
type Adapter struct {
	session   *discordgo.Session
	roleCache *expirable.LRU[string, []*discordgo.Role]

	mu    sync.Mutex
	botID string
}

var _ platform.Platform = (*Adapter)(nil)

// NewAdapter builds an adapter over an existing session.
func NewAdapter(session *discordgo.Session, roleCacheTTL time.Duration) *Adapter {
	return &Adapter{
		session:   session,
		roleCache: expirable.NewLRU[string, []*discordgo.Role](512, nil, roleCacheTTL),
	}
}

// NewSession creates a bot session for token. The gateway is not opened here.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	return s, nil
}

func (a *Adapter) GuildName(ctx context.Context, guildID string) (string, error) {
	g, err := a.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", translate(err, platform.ErrGuildNotFound)
	}
	return g.Name, nil
}

func (a *Adapter) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err, platform.ErrMemberNotFound)
	}
	g, err := a.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err, platform.ErrGuildNotFound)
	}
	return toMember(m, g.OwnerID), nil
}

func (a *Adapter) Roles(ctx context.Context, guildID string) ([]platform.Role, error) {
	raw, err := a.guildRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := make([]platform.Role, 0, len(raw))
	for _, r := range raw {
		out = append(out, platform.Role{ID: r.ID, Name: r.Name, Position: r.Position, Managed: r.Managed})
	}
	return out, nil
}

func (a *Adapter) Channel(ctx context.Context, guildID, channelID string) (*platform.Channel, error) {
	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err, platform.ErrChannelNotFound)
	}
	if guildID != "" && ch.GuildID != guildID {
		return nil, platform.ErrChannelNotFound
	}
	return &platform.Channel{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name}, nil
}

func (a *Adapter) Channels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	chs, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err, platform.ErrGuildNotFound)
	}
	out := make([]platform.Channel, 0, len(chs))
	for _, ch := range chs {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			continue
		}
		out = append(out, platform.Channel{ID: ch.ID, GuildID: ch.GuildID, Name: ch.Name})
	}
	return out, nil
}

func (a *Adapter) AddRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error {
	return a.editRoles(ctx, guildID, userID, roleIDs, nil, reason)
}

func (a *Adapter) RemoveRoles(ctx context.Context, guildID, userID string, roleIDs []string, reason string) error {
	return a.editRoles(ctx, guildID, userID, nil, roleIDs, reason)
}

// editRoles applies a batch as a single member edit, the same way the
// Discord clients do for multi-role changes.
func (a *Adapter) editRoles(ctx context.Context, guildID, userID string, add, remove []string, reason string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return translate(err, platform.ErrMemberNotFound)
	}

	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	next := make([]string, 0, len(m.Roles)+len(add))
	seen := make(map[string]struct{}, len(m.Roles)+len(add))
	for _, id := range append(append([]string{}, m.Roles...), add...) {
		if _, skip := drop[id]; skip {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}

	opts := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		opts = append(opts, discordgo.WithAuditLogReason(reason))
	}
	if _, err := a.session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{Roles: &next}, opts...); err != nil {
		return fmt.Errorf("failed to update roles for %s: %w", userID, err)
	}
	return nil
}

func (a *Adapter) SendChannelMessage(ctx context.Context, channelID string, msg platform.Message) (platform.MessageRef, error) {
	sent, err := a.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return platform.MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}, nil
}

func (a *Adapter) SendDirectMessage(ctx context.Context, userID string, msg platform.Message) (platform.MessageRef, error) {
	dm, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, fmt.Errorf("%w: %v", platform.ErrDirectMessage, err)
	}
	sent, err := a.session.ChannelMessageSendComplex(dm.ID, toMessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return platform.MessageRef{}, fmt.Errorf("%w: %v", platform.ErrDirectMessage, err)
	}
	return platform.MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}, nil
}

func (a *Adapter) EditButtons(ctx context.Context, ref platform.MessageRef, buttons []platform.Button) error {
	edit := discordgo.NewMessageEdit(ref.ChannelID, ref.MessageID)
	components := toComponents(buttons)
	edit.Components = &components
	if _, err := a.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit buttons on %s: %w", ref.MessageID, err)
	}
	return nil
}

func (a *Adapter) IsAdministrator(ctx context.Context, guildID, userID string) (bool, error) {
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, translate(err, platform.ErrMemberNotFound)
	}
	g, err := a.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, translate(err, platform.ErrGuildNotFound)
	}
	if g.OwnerID == userID {
		return true, nil
	}
	roles, err := a.guildRoles(ctx, guildID)
	if err != nil {
		return false, err
	}
	return hasAdministrator(guildID, m.Roles, roles), nil
}

// CanManageRole is true when the bot's highest role sits above the role.
func (a *Adapter) CanManageRole(ctx context.Context, guildID, roleID string) (bool, error) {
	roles, err := a.guildRoles(ctx, guildID)
	if err != nil {
		return false, err
	}
	var target *discordgo.Role
	for _, r := range roles {
		if r.ID == roleID {
			target = r
			break
		}
	}
	if target == nil {
		return false, platform.ErrRoleNotFound
	}
	if target.Managed {
		return false, nil
	}
	botTop, err := a.botTopPosition(ctx, guildID, roles)
	if err != nil {
		return false, err
	}
	return botTop > target.Position, nil
}

// CanManageMember is true when the member is not the owner and the bot's
// highest role sits above the member's highest role.
func (a *Adapter) CanManageMember(ctx context.Context, guildID, userID string) (bool, error) {
	m, err := a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, translate(err, platform.ErrMemberNotFound)
	}
	g, err := a.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, translate(err, platform.ErrGuildNotFound)
	}
	if g.OwnerID == userID {
		return false, nil
	}
	roles, err := a.guildRoles(ctx, guildID)
	if err != nil {
		return false, err
	}
	botTop, err := a.botTopPosition(ctx, guildID, roles)
	if err != nil {
		return false, err
	}
	return botTop > topPosition(m.Roles, roles), nil
}

func (a *Adapter) EnsureBotChannelAccess(ctx context.Context, guildID, channelID string) error {
	botID, err := a.botUserID(ctx)
	if err != nil {
		return err
	}
	if err := a.session.ChannelPermissionSet(channelID, botID, discordgo.PermissionOverwriteTypeMember,
		botChannelAllow, 0, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to grant bot access in %s: %w", channelID, err)
	}
	// @everyone shares the guild id.
	if err := a.session.ChannelPermissionSet(channelID, guildID, discordgo.PermissionOverwriteTypeRole,
		0, discordgo.PermissionMentionEveryone, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to deny @everyone mentions in %s: %w", channelID, err)
	}
	return nil
}

// InvalidateRoles drops the cached role list, e.g. after a GuildRoleUpdate.
func (a *Adapter) InvalidateRoles(guildID string) {
	a.roleCache.Remove(guildID)
}

func (a *Adapter) guildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	if roles, ok := a.roleCache.Get(guildID); ok {
		return roles, nil
	}
	roles, err := a.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, translate(err, platform.ErrGuildNotFound)
	}
	a.roleCache.Add(guildID, roles)
	return roles, nil
}

func (a *Adapter) botTopPosition(ctx context.Context, guildID string, roles []*discordgo.Role) (int, error) {
	botID, err := a.botUserID(ctx)
	if err != nil {
		return 0, err
	}
	bot, err := a.session.GuildMember(guildID, botID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, translate(err, platform.ErrMemberNotFound)
	}
	return topPosition(bot.Roles, roles), nil
}

func (a *Adapter) botUserID(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.botID != "" {
		return a.botID, nil
	}
	if a.session.State != nil && a.session.State.User != nil {
		a.botID = a.session.State.User.ID
		return a.botID, nil
	}
	u, err := a.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot user: %w", err)
	}
	a.botID = u.ID
	logging.Debug("Resolved bot user", "bot_id", a.botID)
	return a.botID, nil
}

func topPosition(held []string, roles []*discordgo.Role) int {
	set := make(map[string]struct{}, len(held))
	for _, id := range held {
		set[id] = struct{}{}
	}
	top := 0
	for _, r := range roles {
		if _, ok := set[r.ID]; ok && r.Position > top {
			top = r.Position
		}
	}
	return top
}

// hasAdministrator checks the member's roles plus @everyone, whose id is the
// guild id and never appears in Member.Roles.
func hasAdministrator(guildID string, held []string, roles []*discordgo.Role) bool {
	set := make(map[string]struct{}, len(held)+1)
	set[guildID] = struct{}{}
	for _, id := range held {
		set[id] = struct{}{}
	}
	for _, r := range roles {
		if _, ok := set[r.ID]; ok && r.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

// translate maps a Discord 404 to the given sentinel.
func translate(err error, notFound error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return err
}
