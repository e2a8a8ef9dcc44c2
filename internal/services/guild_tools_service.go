package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/platform"
)

// permissionFanout caps concurrent channel overwrite edits.
const permissionFanout = 4

// GuildToolsService holds the admin utilities that are not part of the rank
// or lifecycle state: the break/resign panel and channel permissions.
type GuildToolsService struct {
	platform platform.Platform
	store    *ConfigStore
}

func NewGuildToolsService(p platform.Platform, store *ConfigStore) *GuildToolsService {
	return &GuildToolsService{platform: p, store: store}
}

// SendPanel posts the embed with the Break and Resign buttons to channelID.
func (s *GuildToolsService) SendPanel(ctx context.Context, guildID, actorID, channelID string) (*dtos.PanelResponse, error) {
	if err := requireAdmin(ctx, s.platform, guildID, actorID); err != nil {
		return nil, err
	}
	settings, err := s.store.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, common.ConfigurationError(constants.ErrCodeSettingsNotConfigured, nil)
	}
	if _, err := s.platform.Channel(ctx, guildID, channelID); err != nil {
		return nil, common.StateError(constants.ErrCodeChannelNotInGuild, err)
	}

	now := time.Now().UTC()
	ref, err := s.platform.SendChannelMessage(ctx, channelID, platform.Message{
		Embeds: []platform.Embed{{
			Title:       constants.TitlePanel,
			Description: constants.PanelDescription,
			Color:       constants.ColorPanel,
			Footer:      "Current Time & Date: " + now.Format("Jan 2, 2006, 3:04 PM"),
			Timestamp:   now,
		}},
		Buttons: []platform.Button{
			{Label: constants.ButtonBreak, Style: platform.ButtonPrimary, Action: actions.TakeBreak()},
			{Label: constants.ButtonResign, Style: platform.ButtonDanger, Action: actions.Resign()},
		},
	})
	if err != nil {
		return nil, platformError(err)
	}

	return &dtos.PanelResponse{
		ChannelID: ref.ChannelID,
		MessageID: ref.MessageID,
		Message:   fmt.Sprintf(constants.MsgPanelSent, channelMention(channelID)),
	}, nil
}

// FixPermissions grants the bot its channel permissions everywhere and
// denies @everyone mentions. Per-channel failures are collected, not fatal.
func (s *GuildToolsService) FixPermissions(ctx context.Context, guildID, actorID string) (*dtos.FixPermissionsResponse, error) {
	if err := requireAdmin(ctx, s.platform, guildID, actorID); err != nil {
		return nil, err
	}
	channels, err := s.platform.Channels(ctx, guildID)
	if err != nil {
		return nil, platformError(err)
	}

	var (
		mu      sync.Mutex
		updated []string
		failed  []dtos.ChannelFailure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(permissionFanout)
	for _, ch := range channels {
		g.Go(func() error {
			err := s.platform.EnsureBotChannelAccess(gctx, guildID, ch.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, dtos.ChannelFailure{ChannelID: ch.ID, Error: err.Error()})
				return nil
			}
			updated = append(updated, ch.ID)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(updated)
	sort.Slice(failed, func(i, j int) bool { return failed[i].ChannelID < failed[j].ChannelID })

	var msg strings.Builder
	fmt.Fprintf(&msg, constants.MsgPermsComplete, len(updated))
	for _, f := range failed {
		fmt.Fprintf(&msg, constants.MsgPermsFailure, f.ChannelID)
	}
	if len(failed) > 0 {
		logging.WithGuild(guildID, "fix_permissions").Warnw("some channels not updated", "failed", len(failed))
	}

	return &dtos.FixPermissionsResponse{
		Updated: nonNil(updated),
		Failed:  failed,
		Message: msg.String(),
	}, nil
}
