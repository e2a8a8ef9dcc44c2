package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/ranks"
	"infinite-experiment/roster/internal/services"
)

// RankChangeHandler handles POST /api/v1/ranks/{operation}
//
// @Summary Hire, fire, promote or demote a member
// @Tags Ranks
// @Param operation path string true "hire | fire | promote | demote"
// @Param body body dtos.RankChangeRequest true "target member"
// @Success 200 {object} dtos.RankChangeResponse
// @Router /api/v1/ranks/{operation} [post]
func RankChangeHandler(svc RankManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		var req dtos.RankChangeRequest
		if err := decodeBody(r, &req); err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}

		op := ranks.Operation(chi.URLParam(r, "operation"))
		resp, err := svc.Change(r.Context(), op, services.RankCommand{
			GuildID:  claims.DiscordServerID(),
			ActorID:  claims.DiscordUserID(),
			TargetID: req.TargetID,
			Reason:   req.Reason,
		})
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp)
	}
}

// GetHierarchyHandler handles GET /api/v1/hierarchy
func GetHierarchyHandler(svc RankManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		resp, err := svc.ViewHierarchy(r.Context(), claims.DiscordServerID())
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Hierarchy retrieved", resp)
	}
}

// SetupHierarchyHandler handles PUT /api/v1/hierarchy. Roles are listed
// lowest rank first.
func SetupHierarchyHandler(svc RankManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		claims := auth.GetUserClaims(r.Context())

		var req dtos.HierarchySetupRequest
		if err := decodeBody(r, &req); err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}

		resp, err := svc.SetupHierarchy(r.Context(), claims.DiscordServerID(), claims.DiscordUserID(), req.Roles)
		if err != nil {
			common.RespondRosterError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, resp.Message, resp)
	}
}
