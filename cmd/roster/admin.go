package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/auth"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/logging"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/services"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := openDatabase(cfg.Database); err != nil {
				return err
			}
			logging.Info("migration complete", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func apiKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage credentials for the bot front end",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create a new active API key and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, sdb, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			key := uuid.NewString()
			if err := repositories.NewApiKeysRepo(sdb).Create(cmd.Context(), key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "New API Key:", key)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <key>",
		Short: "Deactivate an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sdb, err := openDatabase(cfg.Database)
			if err != nil {
				return err
			}
			found, err := repositories.NewApiKeysRepo(sdb).Revoke(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return errors.New("no such api key")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key revoked")
			return nil
		},
	})

	var (
		guildID string
		userID  string
		ttl     time.Duration
	)
	token := &cobra.Command{
		Use:   "token <subject>",
		Short: "Sign a Bearer token scoped to one guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !actions.ValidSnowflake(guildID) {
				return fmt.Errorf("--guild must be a guild id, got %q", guildID)
			}
			if userID != "" && !actions.ValidSnowflake(userID) {
				return fmt.Errorf("--user must be a user id, got %q", userID)
			}
			signed, err := auth.NewTokenSigner([]byte(cfg.Auth.JWTSecret)).Issue(args[0], guildID, userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}
	token.Flags().StringVar(&guildID, "guild", "", "guild the token acts in")
	token.Flags().StringVar(&userID, "user", "", "fixed acting user; leave empty to pass X-Discord-Id per request")
	token.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	cmd.AddCommand(token)

	return cmd
}

func importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <data.json>",
		Short: "Import hierarchies, settings and resignations from the legacy JSON store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importRun(cmd.Context(), cmd, args[0])
		},
	}
}

func importRun(ctx context.Context, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	gdb, _, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}
	store := services.NewConfigStore(
		repositories.NewHierarchyRepository(gdb),
		repositories.NewSettingsRepository(gdb),
		common.NewCacheService(cfg.Cache.TTL, 0),
		cfg.Cache.TTL,
		metrics.NewMetricsRegistry(prometheus.NewRegistry()),
	)
	importer := services.NewImporter(store, repositories.NewLifecycleRepository(gdb))

	summary, err := importer.Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d hierarchies, %d settings, %d resignations\n",
		summary.Hierarchies, summary.Settings, summary.Records)
	for _, s := range summary.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "skipped:", s)
	}
	return nil
}
