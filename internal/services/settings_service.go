package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/platform"
)

// ValidatedSettings are stored settings whose roles and channels were just
// confirmed to exist in the guild.
type ValidatedSettings struct {
	gormModels.GuildSettings
	BreakRole  platform.Role
	ResignRole platform.Role
	GuildName  string
}

type SettingsService struct {
	platform platform.Platform
	store    *ConfigStore
	locker   common.KeyLocker
	metrics  *metrics.MetricsRegistry
	lockWait time.Duration
}

func NewSettingsService(p platform.Platform, store *ConfigStore, locker common.KeyLocker, reg *metrics.MetricsRegistry, lockWait time.Duration) *SettingsService {
	return &SettingsService{platform: p, store: store, locker: locker, metrics: reg, lockWait: lockWait}
}

// Setup stores the break/resign configuration of a guild.
func (s *SettingsService) Setup(ctx context.Context, guildID, actorID string, req dtos.WorkflowSettingsRequest) (*dtos.SettingsResponse, error) {
	if err := requireAdmin(ctx, s.platform, guildID, actorID); err != nil {
		return nil, err
	}
	settings := gormModels.GuildSettings{
		GuildID:           guildID,
		BreakRoleID:       req.BreakRoleID,
		ResignRoleID:      req.ResignRoleID,
		AnnounceChannelID: req.AnnounceChannelID,
		AdminChannelID:    req.AdminChannelID,
	}
	if !settings.Complete() {
		return nil, common.StateError(constants.ErrCodeInvalidRequest, fmt.Errorf("break role, resign role, public channel and admin channel are all required"))
	}

	roles, err := s.platform.Roles(ctx, guildID)
	if err != nil {
		return nil, platformError(err)
	}
	for _, id := range []string{settings.BreakRoleID, settings.ResignRoleID} {
		role, err := platform.FindRole(roles, id)
		if err != nil {
			return nil, common.ConfigurationError(constants.ErrCodeSettingsRoleMissing, fmt.Errorf("role %s: %w", id, err))
		}
		ok, err := s.platform.CanManageRole(ctx, guildID, id)
		if err != nil {
			return nil, platformError(err)
		}
		if !ok {
			return nil, common.ConfigurationError(constants.ErrCodeRoleNotManageable, nil).
				Withf("Error: I cannot manage the role **%s**. Ensure my role is higher than it.", role.Name)
		}
	}
	for _, id := range []string{settings.AnnounceChannelID, settings.AdminChannelID} {
		if _, err := s.platform.Channel(ctx, guildID, id); err != nil {
			return nil, platformError(err)
		}
	}

	unlock, err := lockKeys(ctx, s.locker, s.metrics, s.lockWait, common.LockKey(constants.LockSettings, guildID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.store.SaveSettings(ctx, &settings); err != nil {
		return nil, err
	}
	logging.WithGuild(guildID, "workflow_setup").Infow("workflow settings saved", "actor_id", actorID)

	resp := settingsResponse(&settings)
	resp.Message = fmt.Sprintf(constants.MsgSettingsSaved,
		platform.Role{ID: settings.BreakRoleID}.Mention(),
		platform.Role{ID: settings.ResignRoleID}.Mention(),
		channelMention(settings.AnnounceChannelID),
		channelMention(settings.AdminChannelID))
	return resp, nil
}

// View returns the stored settings without checking them against the guild.
func (s *SettingsService) View(ctx context.Context, guildID string) (*dtos.SettingsResponse, error) {
	settings, err := s.store.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, common.ConfigurationError(constants.ErrCodeSettingsNotConfigured, nil)
	}
	return settingsResponse(settings), nil
}

// Validated loads the settings and checks, concurrently, that both roles
// and both channels still exist.
func (s *SettingsService) Validated(ctx context.Context, guildID string) (*ValidatedSettings, error) {
	settings, err := s.store.Settings(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if settings == nil || !settings.Complete() {
		return nil, common.ConfigurationError(constants.ErrCodeSettingsNotConfigured, nil)
	}

	out := &ValidatedSettings{GuildSettings: *settings}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		roles, err := s.platform.Roles(gctx, guildID)
		if err != nil {
			return platformError(err)
		}
		if out.BreakRole, err = platform.FindRole(roles, settings.BreakRoleID); err != nil {
			return common.ConfigurationError(constants.ErrCodeSettingsRoleMissing, err)
		}
		if out.ResignRole, err = platform.FindRole(roles, settings.ResignRoleID); err != nil {
			return common.ConfigurationError(constants.ErrCodeSettingsRoleMissing, err)
		}
		return nil
	})
	for _, id := range []string{settings.AnnounceChannelID, settings.AdminChannelID} {
		g.Go(func() error {
			if _, err := s.platform.Channel(gctx, guildID, id); err != nil {
				return platformError(err)
			}
			return nil
		})
	}
	g.Go(func() error {
		name, err := s.platform.GuildName(gctx, guildID)
		if err != nil {
			return platformError(err)
		}
		out.GuildName = name
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func settingsResponse(s *gormModels.GuildSettings) *dtos.SettingsResponse {
	return &dtos.SettingsResponse{
		GuildID:           s.GuildID,
		BreakRoleID:       s.BreakRoleID,
		ResignRoleID:      s.ResignRoleID,
		AnnounceChannelID: s.AnnounceChannelID,
		AdminChannelID:    s.AdminChannelID,
		UpdatedAt:         s.UpdatedAt,
	}
}
