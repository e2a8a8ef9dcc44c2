package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_LegacyIDs(t *testing.T) {
	cases := map[string]Action{
		"break_button":                        TakeBreak(),
		"resign_button":                       Resign(),
		"comeback_request":                    ComebackRequest(),
		"approve_comeback_1081876265683927080": ApproveComeback("1081876265683927080"),
	}
	for id, want := range cases {
		got, err := Decode(id)
		require.NoError(t, err, id)
		assert.Equal(t, want, got)
		assert.Equal(t, id, got.CustomID())
	}
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode("confirm_resign")
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = Decode("approve_comeback_")
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = Decode("approve_comeback_12_34")
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = Decode("")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseMention(t *testing.T) {
	assert.Equal(t, "123", ParseMention("<@123>"))
	assert.Equal(t, "123", ParseMention("<@!123>"))
	assert.Equal(t, "456", ParseMention("<@&456>"))
	assert.Equal(t, "Staff", ParseMention(" Staff "))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "approve_comeback", KindApproveComeback.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
