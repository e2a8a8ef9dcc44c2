package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/db/dbtest"
	gormModels "infinite-experiment/roster/internal/models/gorm"
)

func TestHierarchyRepository_SaveReplaces(t *testing.T) {
	repo := NewHierarchyRepository(dbtest.Open(t))
	ctx := context.Background()

	got, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Save(ctx, &gormModels.GuildHierarchy{GuildID: "g1", RoleIDs: []string{"a", "b", "c"}}))
	require.NoError(t, repo.Save(ctx, &gormModels.GuildHierarchy{GuildID: "g1", RoleIDs: []string{"x", "y"}}))

	got, err = repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"x", "y"}, got.RoleIDs)

	require.NoError(t, repo.Save(ctx, &gormModels.GuildHierarchy{GuildID: "g0", RoleIDs: []string{"p", "q"}}))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ids, err := repo.GuildIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g0", "g1"}, ids)
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	repo := NewSettingsRepository(dbtest.Open(t))
	ctx := context.Background()

	s := &gormModels.GuildSettings{GuildID: "g1", BreakRoleID: "br", ResignRoleID: "rr", AnnounceChannelID: "pub", AdminChannelID: "adm"}
	require.NoError(t, repo.Save(ctx, s))

	s2 := *s
	s2.AdminChannelID = "adm2"
	require.NoError(t, repo.Save(ctx, &s2))

	got, err := repo.Get(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "adm2", got.AdminChannelID)
	assert.True(t, got.Complete())

	ids, err := repo.GuildIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, ids)
}

func TestLifecycleRepository_OneRecordPerUser(t *testing.T) {
	repo := NewLifecycleRepository(dbtest.Open(t))
	ctx := context.Background()

	rec := &gormModels.LifecycleRecord{
		UserID:       "u1",
		GuildID:      "g1",
		SavedRoleIDs: []string{"staff", "trainee"},
		State:        constants.LifecycleResigned,
		ResignedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, rec))

	// a second resignation, even from another guild, is refused
	err := repo.Create(ctx, &gormModels.LifecycleRecord{UserID: "u1", GuildID: "g2", State: constants.LifecycleResigned})
	require.ErrorIs(t, err, ErrRecordExists)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "g1", got.GuildID)
	assert.Equal(t, []string{"staff", "trainee"}, got.SavedRoleIDs)

	got.State = constants.LifecycleComebackRequested
	require.NoError(t, repo.Update(ctx, got))

	list, err := repo.ListByGuild(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, constants.LifecycleComebackRequested, list[0].State)

	deleted, err := repo.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAuditRepository_InsertIsIdempotentByID(t *testing.T) {
	repo := NewAuditRepository(dbtest.Open(t))
	ctx := context.Background()

	e := &gormModels.RankAuditEntry{ID: "e1", GuildID: "g", UserID: "u", Action: constants.AuditPromote, AddedRole: "staff"}
	require.NoError(t, repo.Insert(ctx, e))
	dup := *e
	require.NoError(t, repo.Insert(ctx, &dup))
	require.NoError(t, repo.Insert(ctx, &gormModels.RankAuditEntry{GuildID: "g", UserID: "u", Action: constants.AuditFire}))

	entries, err := repo.ListByUser(ctx, "g", "u", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestKeysRepo_Lifecycle(t *testing.T) {
	gdb := dbtest.Open(t)
	repo := NewApiKeysRepo(dbtest.OpenSqlx(t, gdb))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "key-1"))

	k, err := repo.GetStatus(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, k.Status)

	ok, err := repo.Revoke(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, ok)

	k, err = repo.GetStatus(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, k.Status)

	_, err = repo.GetStatus(ctx, "missing")
	assert.Error(t, err)
	assert.NoError(t, repo.Ping(ctx))
}
