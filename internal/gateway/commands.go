// Package gateway connects the Discord gateway to the roster services:
// slash commands, prefix commands and button clicks all end up in the same
// service calls as the HTTP API.
package gateway

import "github.com/bwmarrin/discordgo"

// Command names, shared by slash and prefix entry points.
const (
	CmdHire          = "hire"
	CmdFire          = "fire"
	CmdPromote       = "promote"
	CmdDemote        = "demote"
	CmdHierarchy     = "role-hierarchy-setup"
	CmdResign        = "resign"
	CmdBreak         = "break"
	CmdWorkflowSetup = "resign-and-break-setup"
	CmdSendPanel     = "send_break_embed"
	CmdFixPerms      = "fixperms"
)

// Slash option names.
const (
	OptUser       = "user"
	OptTarget     = "target"
	OptReason     = "reason"
	OptRoles      = "roles"
	OptBreakRole  = "break_role"
	OptResignRole = "resign_role"
	OptPublicChan = "break_and_resign_channel"
	OptAdminChan  = "admin_channel"
)

// prefixCommands can also be run as "<prefix>name args...". Workflow setup
// and the panel need role and channel pickers, so they are slash only.
var prefixCommands = map[string]bool{
	CmdHire:      true,
	CmdFire:      true,
	CmdPromote:   true,
	CmdDemote:    true,
	CmdHierarchy: true,
	CmdResign:    true,
	CmdBreak:     true,
	CmdFixPerms:  true,
}

// ephemeralCommands reply only to the invoker.
var ephemeralCommands = map[string]bool{
	CmdResign:        true,
	CmdBreak:         true,
	CmdWorkflowSetup: true,
	CmdSendPanel:     true,
	CmdFixPerms:      true,
}

func userOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

func reasonOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        OptReason,
		Description: "Why the change is made.",
	}
}

func textChannelOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         name,
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

// Commands returns the slash command definitions to register.
func Commands() []*discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	manageRoles := int64(discordgo.PermissionManageRoles)
	noDM := false

	return []*discordgo.ApplicationCommand{
		{
			Name:                     CmdHire,
			Description:              "Gives a member the lowest rank in the hierarchy.",
			Options:                  []*discordgo.ApplicationCommandOption{userOption(OptUser, "The member to hire."), reasonOption()},
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
		{
			Name:                     CmdFire,
			Description:              "Removes all hierarchy roles from a member.",
			Options:                  []*discordgo.ApplicationCommandOption{userOption(OptUser, "The member to fire."), reasonOption()},
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
		{
			Name:                     CmdPromote,
			Description:              "Promotes a member to the next role in the hierarchy.",
			Options:                  []*discordgo.ApplicationCommandOption{userOption(OptTarget, "The member to promote."), reasonOption()},
			DefaultMemberPermissions: &manageRoles,
			DMPermission:             &noDM,
		},
		{
			Name:                     CmdDemote,
			Description:              "Demotes a member to the previous rank, or removes all roles.",
			Options:                  []*discordgo.ApplicationCommandOption{userOption(OptUser, "The member to demote."), reasonOption()},
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
		{
			Name:        CmdHierarchy,
			Description: "Sets up the role hierarchy (lowest rank first).",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptRoles,
				Description: "Roles (IDs, mentions or names) separated by spaces, lowest to highest.",
				Required:    true,
			}},
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
		{
			Name:         CmdResign,
			Description:  "Resign from the staff (removes hierarchy roles, gives the resign role).",
			DMPermission: &noDM,
		},
		{
			Name:         CmdBreak,
			Description:  "Take a break (gives the break role and announces it).",
			DMPermission: &noDM,
		},
		{
			Name:        CmdWorkflowSetup,
			Description: "Sets up the roles and channels for the break and resignation system.",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionRole, Name: OptBreakRole, Description: "The role given to members on break.", Required: true},
				{Type: discordgo.ApplicationCommandOptionRole, Name: OptResignRole, Description: "The role given to members who resign.", Required: true},
				textChannelOption(OptPublicChan, "Where breaks and resignations are announced."),
				textChannelOption(OptAdminChan, "Where comeback requests are sent to admins."),
			},
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
		{
			Name:                     CmdSendPanel,
			Description:              "Sends the Breaks & Resignations panel to this channel.",
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
		{
			Name:                     CmdFixPerms,
			Description:              "Checks and corrects the bot's channel permissions across the server.",
			DefaultMemberPermissions: &admin,
			DMPermission:             &noDM,
		},
	}
}
