package gateway

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"infinite-experiment/roster/internal/actions"
)

// Invocation is one command call, whichever way it arrived. Options holds
// named slash options; Args holds the positional words of a prefix command.
type Invocation struct {
	Name      string
	GuildID   string
	ChannelID string
	UserID    string
	Options   map[string]string
	Args      []string
}

// Option returns a named slash option, falling back to the positional
// argument at idx for prefix commands.
func (inv Invocation) Option(name string, idx int) string {
	if v, ok := inv.Options[name]; ok {
		return v
	}
	if idx >= 0 && idx < len(inv.Args) {
		return inv.Args[idx]
	}
	return ""
}

// ParsePrefix splits "!promote <@123> well deserved" into an invocation.
// The command name is lower-cased; ok is false for anything that is not a
// known prefix command.
func ParsePrefix(prefix, content string) (inv Invocation, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return Invocation{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return Invocation{}, false
	}
	name := strings.ToLower(fields[0])
	if !prefixCommands[name] {
		return Invocation{}, false
	}
	return Invocation{Name: name, Args: fields[1:]}, true
}

// interactionUserID is the member in a guild or the user in a DM.
func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// fromCommand converts a slash command interaction. User, role and channel
// options carry the snowflake as their value.
func fromCommand(i *discordgo.Interaction) Invocation {
	data := i.ApplicationCommandData()
	inv := Invocation{
		Name:      data.Name,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		UserID:    interactionUserID(i),
		Options:   make(map[string]string, len(data.Options)),
	}
	for _, opt := range data.Options {
		if v, ok := opt.Value.(string); ok {
			inv.Options[opt.Name] = v
		}
	}
	return inv
}

// rankTarget reads the member a rank command acts on. promote names its
// option differently from the other three.
func rankTarget(inv Invocation) string {
	target := inv.Option(OptUser, 0)
	if target == "" {
		target = inv.Option(OptTarget, 0)
	}
	return actions.ParseMention(target)
}

// rankReason is the free text after the target for prefix commands.
func rankReason(inv Invocation) string {
	if v, ok := inv.Options[OptReason]; ok {
		return v
	}
	if len(inv.Args) > 1 {
		return strings.Join(inv.Args[1:], " ")
	}
	return ""
}

// hierarchyTokens splits the roles option, or returns prefix args as is.
func hierarchyTokens(inv Invocation) []string {
	if v, ok := inv.Options[OptRoles]; ok {
		return strings.Fields(v)
	}
	return inv.Args
}
