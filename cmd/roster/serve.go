package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"infinite-experiment/roster/internal/api"
	"infinite-experiment/roster/internal/discord"
	"infinite-experiment/roster/internal/gateway"
	"infinite-experiment/roster/internal/jobs"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/routes"
	"infinite-experiment/roster/internal/workers"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the Discord gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd.Context())
		},
	}
}

func serveRun(parent context.Context) error {
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// match GOMAXPROCS to the container CPU quota
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logging.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		return fmt.Errorf("failed to set GOMAXPROCS: %w", err)
	}

	upSince := time.Now()
	logging.Info("roster starting up",
		"environment", cfg.AppEnv,
		"timestamp", upSince.Format(time.RFC3339),
	)

	gdb, sdb, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}

	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		return err
	}
	adapter := discord.NewAdapter(session, cfg.Discord.RoleCacheTTL)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsReg := metrics.NewMetricsRegistry(promReg)

	deps, err := api.InitDependencies(cfg, gdb, sdb, adapter, metricsReg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	waitWorkers := func() {}
	if deps.Services.Stream != nil {
		waitWorkers = workers.InitWorkers(ctx, cfg.Audit, deps.Services.Stream, deps.Repo.Audit, metricsReg)
	}
	waitJobs := jobs.InitializeJobs(ctx, cfg.Jobs, jobs.NewConfigAuditJob(
		deps.Repo.Hierarchy,
		deps.Repo.Settings,
		deps.Services.Ranks,
		deps.Services.Settings,
		deps.Services.Lifecycle,
		metricsReg,
	))

	if cfg.Discord.EnableGateway {
		gw := gateway.New(&gateway.Router{
			Ranks:     deps.Services.Ranks,
			Settings:  deps.Services.Settings,
			Lifecycle: deps.Services.Lifecycle,
			Buttons:   deps.Services.Interactions,
			Tools:     deps.Services.Tools,
		}, cfg.Discord.Prefix, cfg.Discord.CommandGuild, adapter, metricsReg)
		gw.Attach(session)
		if err := session.Open(); err != nil {
			return fmt.Errorf("failed to open discord gateway: %w", err)
		}
		defer session.Close()
		logging.Info("discord gateway connected", "prefix", cfg.Discord.Prefix)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.ListenAddr,
		Handler:           routes.RegisterRoutes(deps, cfg.HTTP, upSince),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("server starting", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logging.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("http shutdown incomplete", "error", err)
	}
	stop()
	waitWorkers()
	waitJobs()
	return nil
}
