package ranks

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var staff = Hierarchy{"trainee", "staff", "manager"}

func TestResolveRank(t *testing.T) {
	cases := []struct {
		name string
		held []string
		want int
	}{
		{"none", nil, NoRank},
		{"unrelated roles", []string{"member", "booster"}, NoRank},
		{"lowest", []string{"trainee"}, 0},
		{"top", []string{"member", "manager"}, 2},
		{"multiple picks highest", []string{"manager", "trainee"}, 2},
		{"gap", []string{"trainee", "manager", "x"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveRank(tc.held, staff))
		})
	}
}

func TestResolveRank_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := Hierarchy{"a", "b", "c", "d", "e"}
	pool := append(h.Clone(), "x", "y")

	for i := 0; i < 500; i++ {
		var held []string
		for _, id := range pool {
			if rng.Intn(3) == 0 {
				held = append(held, id)
			}
		}
		want := NoRank
		for idx := len(h) - 1; idx >= 0; idx-- {
			if contains(held, h[idx]) {
				want = idx
				break
			}
		}
		require.Equal(t, want, ResolveRank(held, h), "held=%v", held)
	}
}

func TestHierarchyValidate(t *testing.T) {
	require.NoError(t, staff.Validate())
	assert.ErrorIs(t, Hierarchy{"only"}.Validate(), ErrHierarchyTooShort)
	assert.ErrorIs(t, Hierarchy{"a", "b", "a"}.Validate(), ErrDuplicateRole)
	assert.ErrorIs(t, Hierarchy{"a", " "}.Validate(), ErrEmptyRoleID)
}

func TestPlan_StripsEveryHeldHierarchyRole(t *testing.T) {
	tr, err := Plan([]string{"manager", "member", "trainee"}, staff, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"trainee", "manager"}, tr.Removed)
	assert.Equal(t, "staff", tr.Added)
	assert.Equal(t, StatusRankSet, tr.Kind)
	assert.ElementsMatch(t, []string{"member", "staff"}, tr.Apply([]string{"manager", "member", "trainee"}))
}

func TestPlan_AllRemoved(t *testing.T) {
	tr, err := Plan([]string{"staff"}, staff, NoRank)
	require.NoError(t, err)
	assert.Equal(t, StatusAllRemoved, tr.Kind)
	assert.Empty(t, tr.Added)
	assert.Equal(t, []string{"staff"}, tr.Removed)
}

func TestPlan_OutOfRange(t *testing.T) {
	_, err := Plan(nil, staff, 3)
	assert.ErrorIs(t, err, ErrTargetOutOfRange)
	_, err = Plan(nil, staff, -2)
	assert.ErrorIs(t, err, ErrTargetOutOfRange)
}

func TestPlan_NoopWhenNothingHeldAndNothingAdded(t *testing.T) {
	tr, err := Plan([]string{"member"}, staff, NoRank)
	require.NoError(t, err)
	assert.True(t, tr.Noop())
	assert.Empty(t, tr.Removed)
}

func TestTargetIndex(t *testing.T) {
	cases := []struct {
		op      Operation
		current int
		want    int
		err     error
	}{
		{OpHire, NoRank, 0, nil},
		{OpHire, 2, 0, nil},
		{OpFire, 1, NoRank, nil},
		{OpFire, NoRank, 0, ErrNoRankHeld},
		{OpPromote, NoRank, 0, nil},
		{OpPromote, 1, 2, nil},
		{OpPromote, 2, 0, ErrAlreadyHighest},
		{OpDemote, 2, 1, nil},
		{OpDemote, 0, NoRank, nil},
		{OpDemote, NoRank, 0, ErrNoRankHeld},
	}
	for _, tc := range cases {
		got, err := TargetIndex(tc.op, tc.current, staff.Len())
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "%s from %d", tc.op, tc.current)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s from %d", tc.op, tc.current)
	}

	_, err := TargetIndex("transfer", 0, 3)
	assert.True(t, errors.Is(err, ErrUnknownOperation))
}

func TestHire_FromInconsistentState(t *testing.T) {
	held := []string{"manager", "staff", "trainee", "member"}
	tr, err := Decide(OpHire, held, staff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"member", "trainee"}, tr.Apply(held))
}

func TestPromoteThenDemote_ReturnsToSameRank(t *testing.T) {
	for i := 0; i < staff.Top(); i++ {
		held := []string{staff[i]}
		up, err := Decide(OpPromote, held, staff)
		require.NoError(t, err)
		held = up.Apply(held)

		down, err := Decide(OpDemote, held, staff)
		require.NoError(t, err)
		held = down.Apply(held)

		assert.Equal(t, []string{staff[i]}, HeldRoles(held, staff))
	}
}

func TestScenario_TraineeToManagerAndOut(t *testing.T) {
	var held []string
	step := func(op Operation) error {
		tr, err := Decide(op, held, staff)
		if err != nil {
			return err
		}
		held = tr.Apply(held)
		return nil
	}

	require.NoError(t, step(OpHire))
	assert.Equal(t, []string{"trainee"}, held)
	require.NoError(t, step(OpPromote))
	assert.Equal(t, []string{"staff"}, held)
	require.NoError(t, step(OpPromote))
	assert.Equal(t, []string{"manager"}, held)
	assert.ErrorIs(t, step(OpPromote), ErrAlreadyHighest)
	assert.Equal(t, []string{"manager"}, held)
	require.NoError(t, step(OpDemote))
	assert.Equal(t, []string{"staff"}, held)
	require.NoError(t, step(OpFire))
	assert.Empty(t, held)
	assert.ErrorIs(t, step(OpFire), ErrNoRankHeld)
	assert.ErrorIs(t, step(OpDemote), ErrNoRankHeld)
}

func TestDemoteFromLowest_RemovesEverything(t *testing.T) {
	tr, err := Decide(OpDemote, []string{"trainee"}, staff)
	require.NoError(t, err)
	assert.Equal(t, StatusAllRemoved, tr.Kind)
	assert.Empty(t, tr.Apply([]string{"trainee"}))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
