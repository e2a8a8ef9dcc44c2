package gateway

import (
	"context"
	"fmt"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/ranks"
	"infinite-experiment/roster/internal/services"
)

type RankManager interface {
	Change(ctx context.Context, op ranks.Operation, cmd services.RankCommand) (*dtos.RankChangeResponse, error)
	SetupHierarchy(ctx context.Context, guildID, actorID string, tokens []string) (*dtos.HierarchyResponse, error)
}

type SettingsManager interface {
	Setup(ctx context.Context, guildID, actorID string, req dtos.WorkflowSettingsRequest) (*dtos.SettingsResponse, error)
}

type LifecycleManager interface {
	Break(ctx context.Context, guildID, userID string) (*dtos.LifecycleResponse, error)
	Resign(ctx context.Context, guildID, userID string) (*dtos.LifecycleResponse, error)
}

type ButtonDispatcher interface {
	HandleButton(ctx context.Context, click services.ButtonClick) (*dtos.InteractionResponse, error)
}

type GuildTools interface {
	SendPanel(ctx context.Context, guildID, actorID, channelID string) (*dtos.PanelResponse, error)
	FixPermissions(ctx context.Context, guildID, actorID string) (*dtos.FixPermissionsResponse, error)
}

// Router maps invocations and clicks onto services and renders the reply
// text. It knows nothing about the Discord session.
type Router struct {
	Ranks     RankManager
	Settings  SettingsManager
	Lifecycle LifecycleManager
	Buttons   ButtonDispatcher
	Tools     GuildTools
}

// Dispatch runs one command. The returned string is what the invoker sees;
// errors carry their own member-facing message.
func (r *Router) Dispatch(ctx context.Context, inv Invocation) (string, error) {
	if inv.GuildID == "" {
		return "", common.StateError(constants.ErrCodeInvalidRequest, fmt.Errorf("%s only works inside a server", inv.Name))
	}

	switch inv.Name {
	case CmdHire, CmdFire, CmdPromote, CmdDemote:
		target := rankTarget(inv)
		if target == "" {
			return "", common.StateError(constants.ErrCodeInvalidRequest, nil).
				Withf("Please mention a user or provide their ID to %s them.", inv.Name)
		}
		res, err := r.Ranks.Change(ctx, ranks.Operation(inv.Name), services.RankCommand{
			GuildID:  inv.GuildID,
			ActorID:  inv.UserID,
			TargetID: target,
			Reason:   rankReason(inv),
		})
		if err != nil {
			return "", err
		}
		return res.Message, nil

	case CmdHierarchy:
		res, err := r.Ranks.SetupHierarchy(ctx, inv.GuildID, inv.UserID, hierarchyTokens(inv))
		if err != nil {
			return "", err
		}
		return res.Message, nil

	case CmdBreak:
		res, err := r.Lifecycle.Break(ctx, inv.GuildID, inv.UserID)
		if err != nil {
			return "", err
		}
		return res.Message, nil

	case CmdResign:
		res, err := r.Lifecycle.Resign(ctx, inv.GuildID, inv.UserID)
		if err != nil {
			return "", err
		}
		return res.Message, nil

	case CmdWorkflowSetup:
		res, err := r.Settings.Setup(ctx, inv.GuildID, inv.UserID, dtos.WorkflowSettingsRequest{
			BreakRoleID:       inv.Options[OptBreakRole],
			ResignRoleID:      inv.Options[OptResignRole],
			AnnounceChannelID: inv.Options[OptPublicChan],
			AdminChannelID:    inv.Options[OptAdminChan],
		})
		if err != nil {
			return "", err
		}
		return res.Message, nil

	case CmdSendPanel:
		res, err := r.Tools.SendPanel(ctx, inv.GuildID, inv.UserID, inv.ChannelID)
		if err != nil {
			return "", err
		}
		return res.Message, nil

	case CmdFixPerms:
		res, err := r.Tools.FixPermissions(ctx, inv.GuildID, inv.UserID)
		if err != nil {
			return "", err
		}
		return res.Message, nil
	}

	return "", common.StateError(constants.ErrCodeUnknownAction, fmt.Errorf("unknown command %q", inv.Name))
}

// Click handles a button press.
func (r *Router) Click(ctx context.Context, click services.ButtonClick) (string, error) {
	res, err := r.Buttons.HandleButton(ctx, click)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

// replyText is the message shown for a finished call.
func replyText(msg string, err error) string {
	if err != nil {
		return common.UserMessage(err)
	}
	return msg
}
