package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-experiment/roster/internal/actions"
	"infinite-experiment/roster/internal/common"
	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/dtos"
	"infinite-experiment/roster/internal/platform"
	"infinite-experiment/roster/internal/platform/platformtest"
)

func configuredEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newEnv(t)
	env.setupHierarchy(t)
	env.setupWorkflow(t)
	return env
}

func approveInput(target string) ApproveInput {
	return ApproveInput{GuildID: guildID, ActorID: adminID, ChannelID: adminChannel, TargetUserID: target}
}

func TestResignComebackApprove_RoundTrip(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")

	res, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	require.NoError(t, err)
	assert.Equal(t, dtos.DMSent, res.DMStatus)
	assert.True(t, res.Announced)
	assert.Equal(t, []string{"Resigned"}, env.fake.MemberRoles(guildID, memberID))

	rec, err := env.records.Get(env.ctx, memberID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []string{"Staff"}, rec.SavedRoleIDs)
	assert.Equal(t, guildID, rec.GuildID)
	assert.Equal(t, constants.LifecycleResigned, rec.State)
	assert.NotEmpty(t, rec.ComebackMessageID)

	dms := env.fake.DirectMessagesTo(memberID)
	require.Len(t, dms, 1)
	require.Len(t, dms[0].Message.Buttons, 1)
	assert.Equal(t, actions.ComebackRequest(), dms[0].Message.Buttons[0].Action)

	req, err := env.lifecycle.RequestComeback(env.ctx, memberID, dms[0].Ref)
	require.NoError(t, err)
	assert.Equal(t, constants.LifecycleComebackRequested.String(), req.State)

	adminMsgs := env.fake.ChannelMessagesTo(adminChannel)
	require.Len(t, adminMsgs, 1)
	approval := adminMsgs[0]
	assert.Equal(t, actions.ApproveComeback(memberID), approval.Message.Buttons[0].Action)
	assert.Equal(t, "<@&Staff>", approval.Message.Embeds[0].Fields[0].Value)
	assert.True(t, env.fake.ButtonEdits[dms[0].Ref][0].Disabled)

	in := approveInput(memberID)
	in.Clicked = approval.Ref
	done, err := env.lifecycle.ApproveComeback(env.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, StateActive, done.State)
	assert.Equal(t, []string{"Staff"}, env.fake.MemberRoles(guildID, memberID))
	assert.True(t, env.fake.ButtonEdits[approval.Ref][0].Disabled)

	rec, err = env.records.Get(env.ctx, memberID)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestResign_SavesInconsistentRoleSetExactly(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Manager", "Trainee")

	res, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Trainee", "Manager"}, res.SavedRoleIDs)

	// the hierarchy changes while the member is away
	_, err = env.ranks.SetupHierarchy(env.ctx, guildID, adminID, []string{"Staff", "Manager"})
	require.NoError(t, err)

	_, err = env.lifecycle.ApproveComeback(env.ctx, approveInput(memberID))
	require.NoError(t, err)
	assert.Equal(t, []string{"Manager", "Trainee"}, env.fake.MemberRoles(guildID, memberID))
}

func TestResign_SecondCallRefused(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")

	_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	require.NoError(t, err)
	mutations := env.fake.MutationCount(memberID)

	_, err = env.lifecycle.Resign(env.ctx, guildID, memberID)
	requireCode(t, err, common.KindState, constants.ErrCodeAlreadyResigned)
	assert.Equal(t, mutations, env.fake.MutationCount(memberID))

	recs, err := env.records.ListByGuild(env.ctx, guildID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestResign_RecordInAnotherGuildBlocks(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")
	require.NoError(t, env.records.Create(env.ctx, &gormRecord{UserID: memberID, GuildID: "700000000000000099", State: constants.LifecycleResigned}))

	_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	requireCode(t, err, common.KindState, constants.ErrCodeRecordExists)
	assert.Equal(t, []string{"Staff"}, env.fake.MemberRoles(guildID, memberID))
}

func TestResign_Guards(t *testing.T) {
	t.Run("not ranked", func(t *testing.T) {
		env := configuredEnv(t)
		env.fake.AddMember(guildID, memberID)
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		requireCode(t, err, common.KindState, constants.ErrCodeNotRanked)
	})

	t.Run("settings missing", func(t *testing.T) {
		env := newEnv(t)
		env.setupHierarchy(t)
		env.fake.AddMember(guildID, memberID, "Staff")
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeSettingsNotConfigured)
	})

	t.Run("resign role deleted", func(t *testing.T) {
		env := configuredEnv(t)
		env.fake.AddMember(guildID, memberID, "Staff")
		env.fake.DeleteRole(guildID, "Resigned")
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeSettingsRoleMissing)
	})

	t.Run("role removal failure rolls back the record", func(t *testing.T) {
		env := configuredEnv(t)
		env.fake.AddMember(guildID, memberID, "Staff")
		env.fake.FailMutations = true
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		requireCode(t, err, common.KindTransientExternal, constants.ErrCodePlatformFailure)

		rec, err := env.records.Get(env.ctx, memberID)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestResign_DMFailureIsAnnotationOnly(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")
	env.fake.DMBlocked[memberID] = true

	res, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	require.NoError(t, err)
	assert.Equal(t, dtos.DMFailed, res.DMStatus)
	assert.Contains(t, res.Message, constants.DMStatusComebackBlocked)
	assert.Equal(t, []string{"Resigned"}, env.fake.MemberRoles(guildID, memberID))

	announcements := env.fake.ChannelMessagesTo(announceChannel)
	require.Len(t, announcements, 1)
	assert.Contains(t, announcements[0].Message.Embeds[0].Description, constants.DMStatusComebackBlocked)
}

func TestResign_ResignRoleFailureRestoresMember(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")
	env.fake.FailMutation = func(call platformtest.RoleCall) bool {
		return call.Op == "add" && len(call.RoleIDs) == 1 && call.RoleIDs[0] == "Resigned"
	}

	_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	requireCode(t, err, common.KindTransientExternal, constants.ErrCodePlatformFailure)

	assert.Equal(t, []string{"Staff"}, env.fake.MemberRoles(guildID, memberID))
	rec, err := env.records.Get(env.ctx, memberID)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, env.fake.DirectMessagesTo(memberID))

	// once the platform recovers the member can resign normally
	env.fake.FailMutation = nil
	res, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Staff"}, res.SavedRoleIDs)
	assert.Equal(t, []string{"Resigned"}, env.fake.MemberRoles(guildID, memberID))
}

func TestBreak(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")

	res, err := env.lifecycle.Break(env.ctx, guildID, memberID)
	require.NoError(t, err)
	assert.Equal(t, StateBreak, res.State)
	assert.Equal(t, []string{"Break", "Staff"}, env.fake.MemberRoles(guildID, memberID))
	assert.Len(t, env.fake.ChannelMessagesTo(announceChannel), 1)

	_, err = env.lifecycle.Break(env.ctx, guildID, memberID)
	requireCode(t, err, common.KindState, constants.ErrCodeAlreadyOnBreak)

	rec, err := env.records.Get(env.ctx, memberID)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestBreak_AnnouncementFailureStillSucceeds(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Trainee")
	env.fake.FailChannelIDs[announceChannel] = true

	res, err := env.lifecycle.Break(env.ctx, guildID, memberID)
	require.NoError(t, err)
	assert.False(t, res.Announced)
	assert.Equal(t, dtos.DMSent, res.DMStatus)
}

func TestBreak_RequiresRank(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID)

	_, err := env.lifecycle.Break(env.ctx, guildID, memberID)
	requireCode(t, err, common.KindState, constants.ErrCodeNotRanked)
	assert.Zero(t, env.fake.MutationCount(memberID))
}

func TestRequestComeback(t *testing.T) {
	t.Run("no record", func(t *testing.T) {
		env := configuredEnv(t)
		_, err := env.lifecycle.RequestComeback(env.ctx, memberID, platform.MessageRef{})
		requireCode(t, err, common.KindState, constants.ErrCodeRecordNotFound)
	})

	t.Run("record without guild", func(t *testing.T) {
		env := configuredEnv(t)
		require.NoError(t, env.records.Create(env.ctx, &gormRecord{UserID: memberID, State: constants.LifecycleResigned}))
		_, err := env.lifecycle.RequestComeback(env.ctx, memberID, platform.MessageRef{})
		requireCode(t, err, common.KindConfiguration, constants.ErrCodeGuildReferenceMissing)
	})

	t.Run("second click is a no-op", func(t *testing.T) {
		env := configuredEnv(t)
		env.fake.AddMember(guildID, memberID, "Staff")
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		require.NoError(t, err)

		_, err = env.lifecycle.RequestComeback(env.ctx, memberID, platform.MessageRef{})
		require.NoError(t, err)
		again, err := env.lifecycle.RequestComeback(env.ctx, memberID, platform.MessageRef{})
		require.NoError(t, err)
		assert.True(t, again.AlreadyPending)
		assert.Len(t, env.fake.ChannelMessagesTo(adminChannel), 1)
	})

	t.Run("approval request not delivered", func(t *testing.T) {
		env := configuredEnv(t)
		env.fake.AddMember(guildID, memberID, "Staff")
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		require.NoError(t, err)

		env.fake.FailChannelIDs[adminChannel] = true
		_, err = env.lifecycle.RequestComeback(env.ctx, memberID, platform.MessageRef{})
		requireCode(t, err, common.KindTransientExternal, constants.ErrCodePlatformFailure)

		rec, err := env.records.Get(env.ctx, memberID)
		require.NoError(t, err)
		assert.Equal(t, constants.LifecycleResigned, rec.State)
	})
}

func TestApproveComeback_Guards(t *testing.T) {
	setup := func(t *testing.T) *testEnv {
		env := configuredEnv(t)
		env.fake.AddMember(guildID, memberID, "Staff")
		env.fake.AddMember(guildID, member2ID)
		_, err := env.lifecycle.Resign(env.ctx, guildID, memberID)
		require.NoError(t, err)
		return env
	}

	t.Run("non admin", func(t *testing.T) {
		env := setup(t)
		in := approveInput(memberID)
		in.ActorID = member2ID
		_, err := env.lifecycle.ApproveComeback(env.ctx, in)
		requireCode(t, err, common.KindPrivilege, constants.ErrCodeNotAdministrator)
	})

	t.Run("wrong channel", func(t *testing.T) {
		env := setup(t)
		in := approveInput(memberID)
		in.ChannelID = otherChannel
		_, err := env.lifecycle.ApproveComeback(env.ctx, in)
		requireCode(t, err, common.KindPrivilege, constants.ErrCodeWrongChannel)
		assert.Equal(t, []string{"Resigned"}, env.fake.MemberRoles(guildID, memberID))
	})

	t.Run("double approval", func(t *testing.T) {
		env := setup(t)
		_, err := env.lifecycle.ApproveComeback(env.ctx, approveInput(memberID))
		require.NoError(t, err)
		mutations := env.fake.MutationCount(memberID)
		announcements := len(env.fake.ChannelMessagesTo(announceChannel))

		_, err = env.lifecycle.ApproveComeback(env.ctx, approveInput(memberID))
		requireCode(t, err, common.KindState, constants.ErrCodeRecordNotFound)
		assert.Equal(t, mutations, env.fake.MutationCount(memberID))
		assert.Len(t, env.fake.ChannelMessagesTo(announceChannel), announcements)
	})

	t.Run("restore failure keeps the record", func(t *testing.T) {
		env := setup(t)
		env.fake.FailMutations = true
		_, err := env.lifecycle.ApproveComeback(env.ctx, approveInput(memberID))
		requireCode(t, err, common.KindTransientExternal, constants.ErrCodePlatformFailure)

		rec, err := env.records.Get(env.ctx, memberID)
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})
}

func TestInteractionService_Dispatch(t *testing.T) {
	env := configuredEnv(t)
	env.fake.AddMember(guildID, memberID, "Staff")

	res, err := env.buttons.HandleButton(env.ctx, ButtonClick{GuildID: guildID, UserID: memberID, CustomID: "resign_button"})
	require.NoError(t, err)
	assert.Equal(t, "resign", res.Action)

	dm := env.fake.DirectMessagesTo(memberID)[0]
	_, err = env.buttons.HandleButton(env.ctx, ButtonClick{UserID: memberID, CustomID: "comeback_request", Message: dm.Ref})
	require.NoError(t, err)

	approval := env.fake.ChannelMessagesTo(adminChannel)[0]
	res, err = env.buttons.HandleButton(env.ctx, ButtonClick{
		GuildID:  guildID,
		UserID:   adminID,
		CustomID: "approve_comeback_" + memberID,
		Message:  approval.Ref,
	})
	require.NoError(t, err)
	assert.Equal(t, "approve_comeback", res.Action)
	assert.Equal(t, []string{"Staff"}, env.fake.MemberRoles(guildID, memberID))
	assert.Equal(t, "Comeback Approved", platformtest.ButtonLabels(env.fake.ButtonEdits[approval.Ref]))
}

func TestInteractionService_Rejects(t *testing.T) {
	env := configuredEnv(t)

	_, err := env.buttons.HandleButton(env.ctx, ButtonClick{GuildID: guildID, UserID: memberID, CustomID: "mystery"})
	requireCode(t, err, common.KindState, constants.ErrCodeUnknownAction)

	_, err = env.buttons.HandleButton(env.ctx, ButtonClick{GuildID: guildID, UserID: adminID, CustomID: "approve_comeback_abc"})
	requireCode(t, err, common.KindState, constants.ErrCodeInvalidRequest)

	_, err = env.buttons.HandleButton(env.ctx, ButtonClick{UserID: memberID, CustomID: "break_button"})
	requireCode(t, err, common.KindState, constants.ErrCodeInvalidRequest)
}
