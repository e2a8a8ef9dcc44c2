package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/services"
)

// eventTimeout bounds one command or click. Interaction tokens stay valid
// for 15 minutes, so a deferred reply can always be edited within it.
const eventTimeout = time.Minute

// Responder is the part of *discordgo.Session used to answer events.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendReply(channelID string, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// RoleCache is told when a guild's roles change.
type RoleCache interface {
	InvalidateRoles(guildID string)
}

// Gateway owns the event handlers of a bot session.
type Gateway struct {
	router       *Router
	prefix       string
	commandGuild string
	roles        RoleCache
	metrics      *metrics.MetricsRegistry
}

// New builds a gateway. commandGuild limits slash registration to one
// guild, which Discord applies instantly; empty registers globally.
func New(router *Router, prefix, commandGuild string, roles RoleCache, reg *metrics.MetricsRegistry) *Gateway {
	return &Gateway{
		router:       router,
		prefix:       prefix,
		commandGuild: commandGuild,
		roles:        roles,
		metrics:      reg,
	}
}

// Attach registers the handlers on s. Call before s.Open.
func (g *Gateway) Attach(s *discordgo.Session) {
	s.AddHandler(g.onReady)
	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		g.HandleInteraction(s, i.Interaction)
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		g.HandleMessage(s, m.Message)
	})
	s.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildRoleCreate) { g.invalidate(e.GuildID) })
	s.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildRoleUpdate) { g.invalidate(e.GuildID) })
	s.AddHandler(func(_ *discordgo.Session, e *discordgo.GuildRoleDelete) { g.invalidate(e.GuildID) })
}

func (g *Gateway) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logging.Info("gateway ready", "bot_user", r.User.Username, "guilds", len(r.Guilds))
	if err := g.RegisterCommands(s, r.User.ID); err != nil {
		logging.Error("failed to register slash commands", "error", err)
	}
}

// RegisterCommands overwrites the application's slash commands.
func (g *Gateway) RegisterCommands(s *discordgo.Session, appID string) error {
	cmds, err := s.ApplicationCommandBulkOverwrite(appID, g.commandGuild, Commands())
	if err != nil {
		return fmt.Errorf("failed to overwrite commands: %w", err)
	}
	logging.Info("slash commands registered", "count", len(cmds), "guild", g.commandGuild)
	return nil
}

// HandleInteraction answers slash commands and button clicks. The reply is
// deferred first since role edits, DMs and announcements can take longer
// than Discord's three second window.
func (g *Gateway) HandleInteraction(s Responder, i *discordgo.Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	var (
		kind      string
		ephemeral = true
		run       func() (string, error)
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		inv := fromCommand(i)
		kind = "slash"
		ephemeral = ephemeralCommands[inv.Name]
		run = func() (string, error) { return g.router.Dispatch(ctx, inv) }
	case discordgo.InteractionMessageComponent:
		click := services.ButtonClick{
			GuildID:  i.GuildID,
			UserID:   interactionUserID(i),
			CustomID: i.MessageComponentData().CustomID,
		}
		if i.Message != nil {
			click.Message = platform.MessageRef{ChannelID: i.Message.ChannelID, MessageID: i.Message.ID}
		} else {
			click.Message = platform.MessageRef{ChannelID: i.ChannelID}
		}
		kind = "button"
		run = func() (string, error) { return g.router.Click(ctx, click) }
	default:
		return
	}

	deferred := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		deferred.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := s.InteractionRespond(i, deferred); err != nil {
		logging.Error("failed to acknowledge interaction", "type", kind, "error", err)
		return
	}

	msg, err := run()
	g.observe(kind, err)
	content := replyText(msg, err)
	if _, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}); err != nil {
		logging.Error("failed to edit interaction reply", "type", kind, "error", err)
	}
}

// HandleMessage runs prefix commands. Bots and direct messages are ignored.
func (g *Gateway) HandleMessage(s Responder, m *discordgo.Message) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	inv, ok := ParsePrefix(g.prefix, m.Content)
	if !ok {
		return
	}
	inv.GuildID = m.GuildID
	inv.ChannelID = m.ChannelID
	inv.UserID = m.Author.ID

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	msg, err := g.router.Dispatch(ctx, inv)
	g.observe("prefix", err)
	if _, err := s.ChannelMessageSendReply(m.ChannelID, replyText(msg, err), m.Reference()); err != nil {
		logging.Error("failed to reply to prefix command", "command", inv.Name, "error", err)
	}
}

func (g *Gateway) invalidate(guildID string) {
	if g.roles != nil {
		g.roles.InvalidateRoles(guildID)
	}
}

func (g *Gateway) observe(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		logging.Debug("gateway event refused", "type", kind, "error", err)
	}
	if g.metrics != nil {
		g.metrics.GatewayEventsTotal.WithLabelValues(kind, outcome).Inc()
	}
}
