package services

import (
	"context"
	"errors"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/platform"
)

// ButtonClick is one press of an interactive button. GuildID is empty when
// the click happened in a direct message.
type ButtonClick struct {
	GuildID  string
	UserID   string
	CustomID string
	Message  platform.MessageRef
}

// InteractionService turns button clicks into lifecycle operations.
type InteractionService struct {
	lifecycle *LifecycleService
}

func NewInteractionService(lifecycle *LifecycleService) *InteractionService {
	return &InteractionService{lifecycle: lifecycle}
}

func (s *InteractionService) HandleButton(ctx context.Context, click ButtonClick) (*dtos.InteractionResponse, error) {
	if click.UserID == "" {
		return nil, common.StateError(constants.ErrCodeInvalidRequest, errors.New("button click without a user"))
	}
	action, err := actions.Decode(click.CustomID)
	if err != nil {
		if errors.Is(err, actions.ErrInvalidUserID) {
			return nil, common.StateError(constants.ErrCodeInvalidRequest, err)
		}
		return nil, common.StateError(constants.ErrCodeUnknownAction, err)
	}

	var res *dtos.LifecycleResponse
	switch action.Kind {
	case actions.KindTakeBreak, actions.KindResign:
		if click.GuildID == "" {
			return nil, common.StateError(constants.ErrCodeInvalidRequest, errors.New("break and resign buttons only work inside a guild"))
		}
		if action.Kind == actions.KindTakeBreak {
			res, err = s.lifecycle.Break(ctx, click.GuildID, click.UserID)
		} else {
			res, err = s.lifecycle.Resign(ctx, click.GuildID, click.UserID)
		}
	case actions.KindComebackRequest:
		res, err = s.lifecycle.RequestComeback(ctx, click.UserID, click.Message)
	case actions.KindApproveComeback:
		res, err = s.lifecycle.ApproveComeback(ctx, ApproveInput{
			GuildID:      click.GuildID,
			ActorID:      click.UserID,
			ChannelID:    click.Message.ChannelID,
			TargetUserID: action.UserID,
			Clicked:      click.Message,
		})
	default:
		return nil, common.StateError(constants.ErrCodeUnknownAction, actions.ErrUnknownAction)
	}
	if err != nil {
		return nil, err
	}
	return &dtos.InteractionResponse{Action: action.Kind.String(), Message: res.Message, Data: res}, nil
}
