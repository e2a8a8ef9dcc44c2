// Package platformtest provides an in-memory Platform for service tests.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"infinite-experiment/roster/internal/platform"
)

var ErrInjected = errors.New("injected platform failure")

type RoleCall struct {
	Op      string // "add" or "remove"
	GuildID string
	UserID  string
	RoleIDs []string
	Reason  string
}

type SentMessage struct {
	Ref     platform.MessageRef
	UserID  string // set for direct messages
	Message platform.Message
}

type Guild struct {
	ID       string
	Name     string
	Roles    map[string]platform.Role
	Channels map[string]platform.Channel
	Members  map[string]*platform.Member
	Admins   map[string]bool
}

// Fake is a thread-safe in-memory guild model.
type Fake struct {
	mu sync.Mutex

	guilds map[string]*Guild
	nextID int

	RoleCalls      []RoleCall
	ChannelSends   []SentMessage
	DirectSends    []SentMessage
	ButtonEdits    map[platform.MessageRef][]platform.Button
	AccessGranted  []string
	DMBlocked      map[string]bool
	Unmanageable   map[string]bool // user ids the bot cannot manage
	LockedRoles    map[string]bool // role ids above the bot
	FailMutations  bool
	FailChannelIDs map[string]bool

	// FailMutation, when set, fails the role calls it returns true for.
	FailMutation func(call RoleCall) bool
}

var _ platform.Platform = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		guilds:         make(map[string]*Guild),
		nextID:         1000,
		ButtonEdits:    make(map[platform.MessageRef][]platform.Button),
		DMBlocked:      make(map[string]bool),
		Unmanageable:   make(map[string]bool),
		LockedRoles:    make(map[string]bool),
		FailChannelIDs: make(map[string]bool),
	}
}

// AddGuild registers a guild with the given role names; role ids equal names.
func (f *Fake) AddGuild(id, name string, roleNames ...string) *Guild {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &Guild{
		ID:       id,
		Name:     name,
		Roles:    make(map[string]platform.Role),
		Channels: make(map[string]platform.Channel),
		Members:  make(map[string]*platform.Member),
		Admins:   make(map[string]bool),
	}
	for i, rn := range roleNames {
		g.Roles[rn] = platform.Role{ID: rn, Name: rn, Position: i + 1}
	}
	f.guilds[id] = g
	return g
}

func (f *Fake) AddRole(guildID string, role platform.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[guildID].Roles[role.ID] = role
}

func (f *Fake) DeleteRole(guildID, roleID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.guilds[guildID].Roles, roleID)
}

func (f *Fake) AddChannel(guildID, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[guildID].Channels[channelID] = platform.Channel{ID: channelID, GuildID: guildID, Name: channelID}
}

func (f *Fake) AddMember(guildID, userID string, roleIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[guildID].Members[userID] = &platform.Member{
		UserID:   userID,
		Username: "user-" + userID,
		RoleIDs:  append([]string(nil), roleIDs...),
	}
}

func (f *Fake) MakeAdmin(guildID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.guilds[guildID].Admins[userID] = true
}

// MemberRoles returns a sorted copy of the member's roles.
func (f *Fake) MemberRoles(guildID, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.guilds[guildID].Members[userID]
	if m == nil {
		return nil
	}
	out := append([]string(nil), m.RoleIDs...)
	sort.Strings(out)
	return out
}

// MutationCount counts role add/remove calls for userID.
func (f *Fake) MutationCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.RoleCalls {
		if c.UserID == userID {
			n++
		}
	}
	return n
}

// ChannelMessagesTo returns messages posted to channelID.
func (f *Fake) ChannelMessagesTo(channelID string) []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SentMessage
	for _, m := range f.ChannelSends {
		if m.Ref.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return out
}

// DirectMessagesTo returns direct messages delivered to userID.
func (f *Fake) DirectMessagesTo(userID string) []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SentMessage
	for _, m := range f.DirectSends {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

func (f *Fake) guild(id string) (*Guild, error) {
	g, ok := f.guilds[id]
	if !ok {
		return nil, platform.ErrGuildNotFound
	}
	return g, nil
}

func (f *Fake) GuildName(_ context.Context, guildID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return "", err
	}
	return g.Name, nil
}

func (f *Fake) Member(_ context.Context, guildID, userID string) (*platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	m, ok := g.Members[userID]
	if !ok {
		return nil, platform.ErrMemberNotFound
	}
	cp := *m
	cp.RoleIDs = append([]string(nil), m.RoleIDs...)
	return &cp, nil
}

func (f *Fake) Roles(_ context.Context, guildID string) ([]platform.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	out := make([]platform.Role, 0, len(g.Roles))
	for _, r := range g.Roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *Fake) Channel(_ context.Context, guildID, channelID string) (*platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	ch, ok := g.Channels[channelID]
	if !ok {
		return nil, platform.ErrChannelNotFound
	}
	return &ch, nil
}

func (f *Fake) Channels(_ context.Context, guildID string) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return nil, err
	}
	out := make([]platform.Channel, 0, len(g.Channels))
	for _, ch := range g.Channels {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) AddRoles(_ context.Context, guildID, userID string, roleIDs []string, reason string) error {
	return f.mutate("add", guildID, userID, roleIDs, reason)
}

func (f *Fake) RemoveRoles(_ context.Context, guildID, userID string, roleIDs []string, reason string) error {
	return f.mutate("remove", guildID, userID, roleIDs, reason)
}

func (f *Fake) mutate(op, guildID, userID string, roleIDs []string, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailMutations {
		return ErrInjected
	}
	if f.FailMutation != nil && f.FailMutation(RoleCall{Op: op, GuildID: guildID, UserID: userID, RoleIDs: roleIDs, Reason: reason}) {
		return ErrInjected
	}
	g, err := f.guild(guildID)
	if err != nil {
		return err
	}
	m, ok := g.Members[userID]
	if !ok {
		return platform.ErrMemberNotFound
	}
	for _, id := range roleIDs {
		if _, ok := g.Roles[id]; !ok {
			return fmt.Errorf("%w: %s", platform.ErrRoleNotFound, id)
		}
	}
	f.RoleCalls = append(f.RoleCalls, RoleCall{
		Op: op, GuildID: guildID, UserID: userID, RoleIDs: append([]string(nil), roleIDs...), Reason: reason,
	})

	held := make(map[string]bool, len(m.RoleIDs))
	for _, id := range m.RoleIDs {
		held[id] = true
	}
	for _, id := range roleIDs {
		held[id] = op == "add"
	}
	m.RoleIDs = m.RoleIDs[:0]
	for id, ok := range held {
		if ok {
			m.RoleIDs = append(m.RoleIDs, id)
		}
	}
	sort.Strings(m.RoleIDs)
	return nil
}

func (f *Fake) SendChannelMessage(_ context.Context, channelID string, msg platform.Message) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailChannelIDs[channelID] {
		return platform.MessageRef{}, ErrInjected
	}
	ref := platform.MessageRef{ChannelID: channelID, MessageID: f.newID()}
	f.ChannelSends = append(f.ChannelSends, SentMessage{Ref: ref, Message: msg})
	return ref, nil
}

func (f *Fake) SendDirectMessage(_ context.Context, userID string, msg platform.Message) (platform.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DMBlocked[userID] {
		return platform.MessageRef{}, platform.ErrDirectMessage
	}
	ref := platform.MessageRef{ChannelID: "dm-" + userID, MessageID: f.newID()}
	f.DirectSends = append(f.DirectSends, SentMessage{Ref: ref, UserID: userID, Message: msg})
	return ref, nil
}

func (f *Fake) EditButtons(_ context.Context, ref platform.MessageRef, buttons []platform.Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ButtonEdits[ref] = append([]platform.Button(nil), buttons...)
	return nil
}

func (f *Fake) IsAdministrator(_ context.Context, guildID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return false, err
	}
	return g.Admins[userID], nil
}

func (f *Fake) CanManageRole(_ context.Context, guildID, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return false, err
	}
	if _, ok := g.Roles[roleID]; !ok {
		return false, platform.ErrRoleNotFound
	}
	return !f.LockedRoles[roleID], nil
}

func (f *Fake) CanManageMember(_ context.Context, guildID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, err := f.guild(guildID)
	if err != nil {
		return false, err
	}
	if _, ok := g.Members[userID]; !ok {
		return false, platform.ErrMemberNotFound
	}
	return !f.Unmanageable[userID], nil
}

func (f *Fake) EnsureBotChannelAccess(_ context.Context, guildID, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailChannelIDs[channelID] {
		return ErrInjected
	}
	f.AccessGranted = append(f.AccessGranted, guildID+"/"+channelID)
	return nil
}

func (f *Fake) newID() string {
	f.nextID++
	return fmt.Sprintf("msg-%d", f.nextID)
}

// ButtonLabels joins the labels of buttons, handy in assertions.
func ButtonLabels(buttons []platform.Button) string {
	labels := make([]string, 0, len(buttons))
	for _, b := range buttons {
		labels = append(labels, b.Label)
	}
	return strings.Join(labels, ",")
}
