package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/ranks"
	"infinite-experiment/roster/internal/services"
)

// The handlers depend on these narrow views of the services so they can be
// tested without a platform.

type RankManager interface {
	Change(ctx context.Context, op ranks.Operation, cmd services.RankCommand) (*dtos.RankChangeResponse, error)
	SetupHierarchy(ctx context.Context, guildID, actorID string, tokens []string) (*dtos.HierarchyResponse, error)
	ViewHierarchy(ctx context.Context, guildID string) (*dtos.HierarchyResponse, error)
}

type SettingsManager interface {
	Setup(ctx context.Context, guildID, actorID string, req dtos.WorkflowSettingsRequest) (*dtos.SettingsResponse, error)
	View(ctx context.Context, guildID string) (*dtos.SettingsResponse, error)
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

const maxBodyBytes = 1 << 16

// decodeBody reads a JSON body into dst. An empty body leaves dst as is.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return common.StateError(constants.ErrCodeInvalidRequest, err)
	}
	return nil
}
