package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"infinite-experiment/roster/internal/api"
	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/middleware"
)

// RegisterRoutes builds the HTTP handler: health and metrics at the root,
// the bot API under /api/v1.
func RegisterRoutes(deps *api.Dependencies, httpCfg config.HTTPConfig, upSince time.Time) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.Logging)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Server-Id", "X-Discord-Id"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	checks := map[string]api.Pinger{
		"database": deps.Repo.Keys,
	}
	if deps.Redis != nil {
		checks["redis"] = api.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}
	r.Get("/healthCheck", api.HealthCheckHandler(upSince, checks))
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Gatherer, promhttp.HandlerOpts{}))

	limiter := middleware.NewRateLimiter(httpCfg.RateLimitRPS, httpCfg.RateLimitBurst)
	RegisterAPIRoutes(r, deps, limiter)

	logging.Info("router initialized", "rate_limit_rps", httpCfg.RateLimitRPS)
	return r
}
