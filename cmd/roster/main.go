package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"infinite-experiment/roster/internal/config"
	"infinite-experiment/roster/internal/db"
	"infinite-experiment/roster/internal/logging"
)

const programName = "roster"

var (
	globalFlags = struct {
		configFile string
		envFile    string
		debug      bool
	}{}

	// cfg is loaded once in the root pre-run for every subcommand.
	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Staff rank hierarchy and break/resign workflow bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globalFlags.configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// a missing .env is normal outside development
		if err := godotenv.Load(globalFlags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", globalFlags.envFile, err)
		}

		loaded, err := config.Load(globalFlags.configFile)
		if err != nil {
			return err
		}
		if globalFlags.debug {
			loaded.LogLevel = "debug"
		}
		if err := logging.Init(loaded.AppEnv, loaded.LogLevel); err != nil {
			return err
		}
		cfg = loaded
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(apiKeyCommand())
	rootCmd.AddCommand(importCommand())

	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

// openDatabase connects, migrates and returns the GORM handle plus the sqlx
// view of the same pool.
func openDatabase(dbCfg config.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	gdb, err := db.InitORM(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, nil, err
	}
	sdb, err := db.NewSqlx(gdb, dbCfg.Driver)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureKeyTable(sdb); err != nil {
		return nil, nil, err
	}
	return gdb, sdb, nil
}
