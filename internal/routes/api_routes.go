package routes

import (
	"github.com/go-chi/chi/v5"

	"infinite-experiment/roster/internal/api"
	"infinite-experiment/roster/internal/middleware"
)

// RegisterAPIRoutes registers the v1 bot API. Every route is authenticated;
// all but button clicks are scoped to the guild in the request claims.
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, limiter *middleware.RateLimiter) {
	svc := deps.Services

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.InFlightMiddleware(deps.Metrics))
		v1.Use(middleware.AuthMiddleware(deps.Repo.Keys, svc.Cache, deps.Signer))
		v1.Use(limiter.Middleware)

		// comeback buttons are clicked in direct messages, outside any guild
		v1.Post("/interactions/button", api.ButtonInteractionHandler(svc.Interactions))

		v1.Group(func(guild chi.Router) {
			guild.Use(middleware.RequireGuildMiddleware())

			guild.Post("/ranks/{operation}", api.RankChangeHandler(svc.Ranks))
			guild.Get("/hierarchy", api.GetHierarchyHandler(svc.Ranks))
			guild.Put("/hierarchy", api.SetupHierarchyHandler(svc.Ranks))

			guild.Route("/workflow", func(wf chi.Router) {
				wf.Get("/settings", api.GetWorkflowSettingsHandler(svc.Settings))
				wf.Put("/settings", api.SetupWorkflowSettingsHandler(svc.Settings))
				wf.Post("/break", api.BreakHandler(svc.Lifecycle))
				wf.Post("/resign", api.ResignHandler(svc.Lifecycle))
			})

			guild.Route("/guild", func(g chi.Router) {
				g.Post("/panel", api.SendPanelHandler(svc.Tools))
				g.Post("/fix-permissions", api.FixPermissionsHandler(svc.Tools))
			})
		})
	})
}
