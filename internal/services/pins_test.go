package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat/internal/models"
)

func TestPinLimit(t *testing.T) {
	f := newFixture(t)
	viewer := f.user(t, "viewer")

	var chats []models.Chat
	for _, name := range []string{"a", "b", "c", "d"} {
		chats = append(chats, f.chat(t, viewer, f.user(t, name)))
	}

	for _, chat := range chats[:3] {
		_, err := f.pins.Pin(f.ctx, viewer.ID, chat.ID)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	before, err := f.pins.ListPins(f.ctx, viewer.ID)
	require.NoError(t, err)

	_, err = f.pins.Pin(f.ctx, viewer.ID, chats[3].ID)
	assert.ErrorIs(t, err, ErrLimitExceeded)

	after, err := f.pins.ListPins(f.ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.Len(t, after, 3)
	assert.Equal(t, chats[2].ID, after[0].ChatID)

	require.NoError(t, f.pins.Unpin(f.ctx, viewer.ID, chats[0].ID))
	_, err = f.pins.Pin(f.ctx, viewer.ID, chats[3].ID)
	require.NoError(t, err)

	require.NoError(t, f.pins.Unpin(f.ctx, viewer.ID, chats[0].ID))
}

func TestPinTwiceKeepsOriginalTime(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	chat := f.chat(t, alice, f.user(t, "bob"))

	first, err := f.pins.Pin(f.ctx, alice.ID, chat.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.pins.Pin(f.ctx, alice.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, first.PinnedAt, second.PinnedAt)

	pins, err := f.pins.ListPins(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, pins, 1)
}

func TestPinRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	chat := f.chat(t, alice, f.user(t, "bob"))
	carol := f.user(t, "carol")

	_, err := f.pins.Pin(f.ctx, carol.ID, chat.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
