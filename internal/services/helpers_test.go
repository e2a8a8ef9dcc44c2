package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/db/dbtest"
	"infinite-experiment/roster/internal/db/repositories"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/models/dtos"
	gormModels "infinite-experiment/roster/internal/models/gorm"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/platform/platformtest"
)

const (
	guildID   = "700000000000000001"
	adminID   = "900000000000000001"
	memberID  = "100000000000000001"
	member2ID = "100000000000000002"

	announceChannel = "500000000000000001"
	adminChannel    = "500000000000000002"
	otherChannel    = "500000000000000003"
)

type testEnv struct {
	ctx       context.Context
	fake      *platformtest.Fake
	store     *ConfigStore
	records   *repositories.LifecycleRepository
	audits    *repositories.AuditRepository
	ranks     *RankService
	settings  *SettingsService
	lifecycle *LifecycleService
	tools     *GuildToolsService
	buttons   *InteractionService
	importer  *Importer
}

// newEnv builds every service over a fake guild with roles Trainee, Staff,
// Manager, Break and Resigned. Nothing is configured yet.
func newEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := dbtest.Open(t)
	fake := platformtest.New()
	fake.AddGuild(guildID, "Test Guild", "Trainee", "Staff", "Manager", "Break", "Resigned")
	fake.AddChannel(guildID, announceChannel)
	fake.AddChannel(guildID, adminChannel)
	fake.AddChannel(guildID, otherChannel)
	fake.AddMember(guildID, adminID)
	fake.MakeAdmin(guildID, adminID)

	reg := metrics.NewTestRegistry()
	locker := common.NewMemoryKeyLocker()
	audits := repositories.NewAuditRepository(gdb)
	pub := NewDirectAuditPublisher(audits)
	records := repositories.NewLifecycleRepository(gdb)
	store := NewConfigStore(
		repositories.NewHierarchyRepository(gdb),
		repositories.NewSettingsRepository(gdb),
		common.NewCacheService(time.Minute, 0),
		time.Minute,
		reg,
	)
	settings := NewSettingsService(fake, store, locker, reg, time.Second)
	lifecycle := NewLifecycleService(fake, store, settings, records, locker, pub, reg, time.Second)

	return &testEnv{
		ctx:       context.Background(),
		fake:      fake,
		store:     store,
		records:   records,
		audits:    audits,
		ranks:     NewRankService(fake, store, locker, pub, reg, time.Second),
		settings:  settings,
		lifecycle: lifecycle,
		tools:     NewGuildToolsService(fake, store),
		buttons:   NewInteractionService(lifecycle),
		importer:  NewImporter(store, records),
	}
}

func (e *testEnv) setupHierarchy(t *testing.T) {
	t.Helper()
	_, err := e.ranks.SetupHierarchy(e.ctx, guildID, adminID, []string{"Trainee", "Staff", "Manager"})
	require.NoError(t, err)
}

func (e *testEnv) setupWorkflow(t *testing.T) {
	t.Helper()
	_, err := e.settings.Setup(e.ctx, guildID, adminID, dtos.WorkflowSettingsRequest{
		BreakRoleID:       "Break",
		ResignRoleID:      "Resigned",
		AnnounceChannelID: announceChannel,
		AdminChannelID:    adminChannel,
	})
	require.NoError(t, err)
}

func (e *testEnv) cmd(target string) RankCommand {
	return RankCommand{GuildID: guildID, ActorID: adminID, TargetID: target}
}

func requireCode(t *testing.T, err error, kind common.ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	re, ok := common.AsRosterError(err)
	require.True(t, ok, "expected a roster error, got %v", err)
	require.Equal(t, kind, re.Kind)
	require.Equal(t, code, re.Code)
}

func platformRole(id, name string, position int) platform.Role {
	return platform.Role{ID: id, Name: name, Position: position}
}

type gormRecord = gormModels.LifecycleRecord
