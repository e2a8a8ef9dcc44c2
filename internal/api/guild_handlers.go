package api

import (
	"net/http"
	"time"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/services"
)

// ButtonInteractionHandler handles POST /api/v1/interactions/button. The
// front end forwards the clicked custom id; the clicking user comes from the
// request claims.
func ButtonInteractionHandler(svc ButtonDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		var req dtos.ButtonInteractionRequest
		if err := decodeBody(r, &req); err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}

		resp, err := svc.HandleButton(r.Context(), services.ButtonClick{
			GuildID:  claims.DiscordServerID(),
			UserID:   claims.DiscordUserID(),
			CustomID: req.CustomID,
			Message:  platform.MessageRef{ChannelID: req.ChannelID, MessageID: req.MessageID},
		})
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp)
	}
}

// SendPanelHandler handles POST /api/v1/guild/panel
func SendPanelHandler(svc GuildTools) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		var req dtos.PanelRequest
		if err := decodeBody(r, &req); err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}

		resp, err := svc.SendPanel(r.Context(), claims.DiscordServerID(), claims.DiscordUserID(), req.ChannelID)
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp, http.StatusCreated)
	}
}

// FixPermissionsHandler handles POST /api/v1/guild/fix-permissions. Channels
// the bot could not update are listed in the response, which is still a 200.
func FixPermissionsHandler(svc GuildTools) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		resp, err := svc.FixPermissions(r.Context(), claims.DiscordServerID(), claims.DiscordUserID())
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp)
	}
}
