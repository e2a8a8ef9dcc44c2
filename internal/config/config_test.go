package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "!", cfg.Discord.Prefix)
	assert.Equal(t, LockerMemory, cfg.Cache.Locker)
}

func TestLoad_FileKeepsValuesWithoutEnv(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlitePath: /tmp/roster-test.db
discord:
  prefix: "?"
  roleCacheTtl: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/roster-test.db", cfg.Database.SQLPath)
	assert.Equal(t, "?", cfg.Discord.Prefix)
	assert.Equal(t, time.Minute, cfg.Discord.RoleCacheTTL)
	// untouched sections keep defaults
	assert.Equal(t, "roster:audit", cfg.Audit.Stream)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "discord:\n  prefix: \"?\"\n")
	t.Setenv("DISCORD_PREFIX", "$")
	t.Setenv("HTTP_LISTEN_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "$", cfg.Discord.Prefix)
	assert.Equal(t, ":9090", cfg.HTTP.ListenAddr)
}

func TestLoad_JobIntervalCanBeDisabled(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Jobs.ConfigAuditInterval)

	t.Setenv("JOB_CONFIG_AUDIT_INTERVAL", "0s")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.Jobs.ConfigAuditInterval)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate_RedisLockerNeedsRedis(t *testing.T) {
	cfg := Default()
	cfg.Cache.Locker = LockerRedis
	require.Error(t, cfg.Validate())

	cfg.Redis.Enabled = true
	require.NoError(t, cfg.Validate())
}

func TestRequireDiscord(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireDiscord(), ErrMissingToken)
	cfg.Discord.Token = "x"
	assert.NoError(t, cfg.RequireDiscord())
}
