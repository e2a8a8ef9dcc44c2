package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/metrics"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/platform/platformtest"
	"infinite-experiment/roster/internal/ranks"
)

func TestRankService_LadderScenario(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID)

	steps := []struct {
		op   ranks.Operation
		want []string
	}{
		{ranks.OpHire, []string{"Trainee"}},
		{ranks.OpPromote, []string{"Staff"}},
		{ranks.OpPromote, []string{"Manager"}},
	}
	for _, step := range steps {
		_, err := env.ranks.Change(env.ctx, step.op, env.cmd(memberID))
		require.NoError(t, err, step.op)
		assert.Equal(t, step.want, env.fake.MemberRoles(guildID, memberID), step.op)
	}

	before := env.fake.MutationCount(memberID)
	_, err := env.ranks.Promote(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindState, constants.ErrCodeAlreadyHighest)
	assert.Equal(t, before, env.fake.MutationCount(memberID))
	assert.Equal(t, []string{"Manager"}, env.fake.MemberRoles(guildID, memberID))

	_, err = env.ranks.Demote(env.ctx, env.cmd(memberID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Staff"}, env.fake.MemberRoles(guildID, memberID))

	res, err := env.ranks.Fire(env.ctx, env.cmd(memberID))
	require.NoError(t, err)
	assert.Empty(t, env.fake.MemberRoles(guildID, memberID))
	assert.Equal(t, string(ranks.StatusAllRemoved), res.Kind)
	assert.Contains(t, res.Message, "All hierarchy roles have been removed")
}

func TestRankService_HireCollapsesMultipleRoles(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Manager", "Trainee", "Break")

	res, err := env.ranks.Hire(env.ctx, env.cmd(memberID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Break", "Trainee"}, env.fake.MemberRoles(guildID, memberID))
	assert.ElementsMatch(t, []string{"Trainee", "Manager"}, res.RemovedRoleIDs)
	assert.Equal(t, "✅ Success! user-"+memberID+" has been granted the **Trainee** role.", res.Message)
}

func TestRankService_PromoteThenDemoteRestores(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Staff")

	_, err := env.ranks.Promote(env.ctx, env.cmd(memberID))
	require.NoError(t, err)
	_, err = env.ranks.Demote(env.ctx, env.cmd(memberID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Staff"}, env.fake.MemberRoles(guildID, memberID))
}

func TestRankService_RefusesUnrankedDemoteAndFire(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID)

	_, err := env.ranks.Demote(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindState, constants.ErrCodeNoRankHeld)
	_, err = env.ranks.Fire(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindState, constants.ErrCodeNoRankHeld)
	assert.Zero(t, env.fake.MutationCount(memberID))
}

func TestRankService_DemoteFromLowestRemovesAll(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Trainee")

	res, err := env.ranks.Demote(env.ctx, env.cmd(memberID))
	require.NoError(t, err)
	assert.Empty(t, env.fake.MemberRoles(guildID, memberID))
	assert.Equal(t, ranks.NoRank, res.ToIndex)
}

func TestRankService_Preconditions(t *testing.T) {
	t.Run("hierarchy not configured", func(t *testing.T) {
		env := newEnv(t)
		env.fake.AddMember(guildID, memberID)
		_, err := env.ranks.Hire(env.ctx, env.cmd(memberID))
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeHierarchyNotConfigured)
	})

	t.Run("hierarchy role deleted", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		env.fake.AddMember(guildID, memberID)
		env.fake.DeleteRole(guildID, "Staff")
		_, err := env.ranks.Hire(env.ctx, env.cmd(memberID))
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeHierarchyRoleMissing)
	})

	t.Run("actor not admin", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		env.fake.AddMember(guildID, memberID)
		env.fake.AddMember(guildID, member2ID)
		_, err := env.ranks.Hire(env.ctx, RankCommand{GuildID: guildID, ActorID: member2ID, TargetID: memberID})
		requireCode(t, err, common.KindPrivilege, constants.ErrCodeNotAdministrator)
		assert.Zero(t, env.fake.MutationCount(memberID))
	})

	t.Run("self target", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		_, err := env.ranks.Promote(env.ctx, env.cmd(adminID))
		requireCode(t, err, common.KindPrivilege, constants.ErrCodeSelfTarget)
	})

	t.Run("member above the bot", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		env.fake.AddMember(guildID, memberID)
		env.fake.Unmanageable[memberID] = true
		_, err := env.ranks.Hire(env.ctx, env.cmd(memberID))
		requireCode(t, err, common.KindPrivilege, constants.ErrCodeMemberNotManaged)
	})

	t.Run("member not in guild", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		_, err := env.ranks.Hire(env.ctx, env.cmd(memberID))
		requireCode(t, err, common.KindState, constants.ErrCodeMemberNotFound)
	})

	t.Run("unknown operation", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.ranks.Change(env.ctx, ranks.Operation("banish"), env.cmd(memberID))
		requireCode(t, err, common.KindState, constants.ErrCodeUnknownOperation)
	})
}

func TestRankService_PlatformFailureIsTransient(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID)
	env.fake.FailMutations = true

	_, err := env.ranks.Hire(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindTransientExternal, constants.ErrCodeRankNotGranted)
}

func TestRankService_FailedGrantRestoresPreviousRank(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Trainee")
	env.fake.FailMutation = func(call platformtest.RoleCall) bool {
		return call.Reason == constants.AuditReasonRankChange
	}

	_, err := env.ranks.Promote(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindTransientExternal, constants.ErrCodeRankNotGranted)
	assert.Equal(t, []string{"Trainee"}, env.fake.MemberRoles(guildID, memberID))
}

func TestRankService_FailedGrantAndRestoreIsReported(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Trainee")
	env.fake.FailMutation = func(call platformtest.RoleCall) bool {
		return call.Op == "add"
	}

	_, err := env.ranks.Promote(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindTransientExternal, constants.ErrCodeRankStripped)
	assert.Contains(t, common.UserMessage(err), "hold no rank")
	assert.Empty(t, env.fake.MemberRoles(guildID, memberID))
}

// rolesThenDelete deletes a role right after the first role listing, as if a
// guild admin removed it while a rank change waited for its lock.
type rolesThenDelete struct {
	*platformtest.Fake
	roleID string
	calls  int
}

func (p *rolesThenDelete) Roles(ctx context.Context, guildID string) ([]platform.Role, error) {
	roles, err := p.Fake.Roles(ctx, guildID)
	p.calls++
	if p.calls == 1 {
		p.Fake.DeleteRole(guildID, p.roleID)
	}
	return roles, err
}

func TestRankService_RechecksHierarchyUnderLock(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Trainee")

	p := &rolesThenDelete{Fake: env.fake, roleID: "Staff"}
	svc := NewRankService(p, env.store, common.NewMemoryKeyLocker(), NewDirectAuditPublisher(env.audits), metrics.NewTestRegistry(), time.Second)

	_, err := svc.Promote(env.ctx, env.cmd(memberID))
	requireCode(t, err, common.KindConfiguration, constants.ErrCodeHierarchyRoleMissing)
	assert.Equal(t, 2, p.calls)
	assert.Equal(t, 0, env.fake.MutationCount(memberID))
	assert.Equal(t, []string{"Trainee"}, env.fake.MemberRoles(guildID, memberID))
}

func TestRankService_WritesAuditEntry(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID)

	cmd := env.cmd(memberID)
	cmd.Reason = "passed training"
	_, err := env.ranks.Hire(env.ctx, cmd)
	require.NoError(t, err)

	entries, err := env.audits.ListByUser(env.ctx, guildID, memberID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.AuditHire, entries[0].Action)
	assert.Equal(t, adminID, entries[0].ActorID)
	assert.Equal(t, "Trainee", entries[0].AddedRole)
	assert.Equal(t, "passed training", entries[0].Reason)
}

func TestRankService_ConcurrentPromotesSerialize(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.AddMember(guildID, memberID, "Trainee")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ranks.Promote(env.ctx, env.cmd(memberID))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	// two serialized promotes climb two ranks rather than both landing on Staff
	assert.Equal(t, []string{"Manager"}, env.fake.MemberRoles(guildID, memberID))
}

func TestSetupHierarchy(t *testing.T) {
	t.Run("mixed tokens", func(t *testing.T) {
		env := newEnv(t)
		env.fake.AddRole(guildID, platformRole("800000000000000001", "Director", 9))

		res, err := env.ranks.SetupHierarchy(env.ctx, guildID, adminID, []string{"trainee", "<@&800000000000000001>"})
		require.NoError(t, err)
		require.Len(t, res.Roles, 2)
		assert.Equal(t, "Director", res.Roles[1].Name)
		assert.Contains(t, res.Message, "1. Trainee\n2. Director\n")

		h, err := env.store.Hierarchy(env.ctx, guildID)
		require.NoError(t, err)
		assert.Equal(t, ranks.Hierarchy{"Trainee", "800000000000000001"}, h)
	})

	t.Run("too short", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.ranks.SetupHierarchy(env.ctx, guildID, adminID, []string{"Trainee"})
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeHierarchyTooShort)
	})

	t.Run("unresolvable token rejects whole setup", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		_, err := env.ranks.SetupHierarchy(env.ctx, guildID, adminID, []string{"Trainee", "Ghost"})
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeRoleUnresolvable)
		assert.Contains(t, common.UserMessage(err), "`Ghost`")

		h, err := env.store.Hierarchy(env.ctx, guildID)
		require.NoError(t, err)
		assert.Equal(t, ranks.Hierarchy{"Trainee", "Staff", "Manager"}, h)
	})

	t.Run("unmanageable role", func(t *testing.T) {
		env := newEnv(t)
		env.fake.LockedRoles["Manager"] = true
		_, err := env.ranks.SetupHierarchy(env.ctx, guildID, adminID, []string{"Trainee", "Manager"})
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeRoleNotManageable)
	})

	t.Run("duplicate", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.ranks.SetupHierarchy(env.ctx, guildID, adminID, []string{"Trainee", "trainee"})
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeHierarchyDuplicate)
	})

	t.Run("non admin", func(t *testing.T) {
		env := newEnv(t)
		env.fake.AddMember(guildID, memberID)
		_, err := env.ranks.SetupHierarchy(env.ctx, guildID, memberID, []string{"Trainee", "Staff"})
		requireCode(t, err, common.KindPrivilege, constants.ErrCodeNotAdministrator)
	})
}

func TestViewHierarchy_FlagsMissingRoles(t *testing.T) {
	env := newEnv(t)
	env.setupHierarchy(t)
	env.fake.DeleteRole(guildID, "Staff")

	res, err := env.ranks.ViewHierarchy(env.ctx, guildID)
	require.NoError(t, err)
	require.Len(t, res.Roles, 3)
	assert.Equal(t, "Trainee", res.Roles[0].Name)
	assert.True(t, res.Roles[1].Missing)
}
