package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/santabot/core/state"
	"github.com/m3rciful/santabot/internal/santa"
)

func TestDialogueTrackingChainOnSQLite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	d := santa.NewDialogue(s, state.NewMemoryManager(), nil)

	turn := func(userID int64, text string) santa.Reply {
		t.Helper()
		r, err := d.Handle(ctx, santa.Inbound{UserID: userID, ChatKind: santa.ChatPrivate, Text: text})
		require.NoError(t, err)
		return r
	}

	_, err := s.ImportAssignments(ctx, []santa.Assignment{
		{GiverExternalID: "vk777", ReceiverExternalID: "vk999", Preferences: prefs("Anna")},
		{GiverExternalID: "vk999", ReceiverExternalID: "vk777", Preferences: prefs("Boris")},
	})
	require.NoError(t, err)

	for _, u := range []struct {
		id  int64
		ext string
	}{{12345, "vk777"}, {67890, "vk999"}} {
		turn(u.id, "/start")
		turn(u.id, santa.ButtonRegister)
		turn(u.id, u.ext)
	}
	turn(67890, santa.ButtonSubmitTrack)
	turn(67890, "RA123456789CN")

	code, err := s.Tracking(ctx, 67890)
	require.NoError(t, err)
	assert.Equal(t, "RA123456789CN", code)

	r := turn(12345, santa.ButtonTrackingState)
	assert.Contains(t, r.Text, "RA123456789CN")

	r = turn(12345, santa.ButtonAssignment)
	assert.Contains(t, r.Text, "Boris")
	assert.Contains(t, r.Text, "carrot")
	assert.Equal(t, santa.KeyboardMain, r.Keyboard)
}
