package api

import (
	"context"
	"net/http"
	"time"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/dtos"
)

// GetWorkflowSettingsHandler handles GET /api/v1/workflow/settings
func GetWorkflowSettingsHandler(svc SettingsManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		resp, err := svc.View(r.Context(), claims.DiscordServerID())
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Settings retrieved", resp)
	}
}

// SetupWorkflowSettingsHandler handles PUT /api/v1/workflow/settings
//
// @Summary Configure the break and resign workflow
// @Tags Workflow
// @Param body body dtos.WorkflowSettingsRequest true "roles and channels"
// @Success 200 {object} dtos.SettingsResponse
// @Router /api/v1/workflow/settings [put]
func SetupWorkflowSettingsHandler(svc SettingsManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		var req dtos.WorkflowSettingsRequest
		if err := decodeBody(r, &req); err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}

		resp, err := svc.Setup(r.Context(), claims.DiscordServerID(), claims.DiscordUserID(), req)
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp)
	}
}

// BreakHandler handles POST /api/v1/workflow/break for the calling member.
func BreakHandler(svc LifecycleManager) http.HandlerFunc {
	return lifecycleHandler(svc.Break)
}

// ResignHandler handles POST /api/v1/workflow/resign for the calling member.
func ResignHandler(svc LifecycleManager) http.HandlerFunc {
	return lifecycleHandler(svc.Resign)
}

type lifecycleFunc func(ctx context.Context, guildID, userID string) (*dtos.LifecycleResponse, error)

// break and resign act on the caller, so a member id is mandatory here
func lifecycleHandler(fn lifecycleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		if claims.DiscordUserID() == "" {
			common.RespondRosterError(w, initTime, common.StateError(constants.ErrCodeInvalidRequest, nil))
			return
		}

		resp, err := fn(r.Context(), claims.DiscordServerID(), claims.DiscordUserID())
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp)
	}
}
