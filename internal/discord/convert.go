package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"infinite-experiment/roster/internal/platform"
)

func toMember(m *discordgo.Member, ownerID string) *platform.Member {
	out := &platform.Member{
		RoleIDs: append([]string(nil), m.Roles...),
	}
	if m.User != nil {
		out.UserID = m.User.ID
		out.Username = m.User.Username
	}
	out.IsOwner = out.UserID != "" && out.UserID == ownerID
	return out
}

func toMessageSend(msg platform.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Content}
	for _, e := range msg.Embeds {
		send.Embeds = append(send.Embeds, toEmbed(e))
	}
	if len(msg.Buttons) > 0 {
		send.Components = toComponents(msg.Buttons)
	}
	return send
}

func toEmbed(e platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	if !e.Timestamp.IsZero() {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	return out
}

// toComponents puts every button in a single action row.
func toComponents(buttons []platform.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			Style:    toButtonStyle(b.Style),
			CustomID: b.Action.CustomID(),
			Disabled: b.Disabled,
		})
	}
	return []discordgo.MessageComponent{row}
}

func toButtonStyle(s platform.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case platform.ButtonSecondary:
		return discordgo.SecondaryButton
	case platform.ButtonSuccess:
		return discordgo.SuccessButton
	case platform.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}
