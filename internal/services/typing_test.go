package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingExpiresByClockAlone(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	chat := f.chat(t, alice, bob)

	signal, err := f.typing.SetTyping(f.ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(3*time.Second), signal.ExpiresAt)

	f.clock.Advance(2 * time.Second)
	signals, err := f.typing.GetTypingIndicators(f.ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.True(t, signals[0].ActiveAt(f.clock.Now()))

	f.clock.Advance(2 * time.Second)
	signals, err = f.typing.GetTypingIndicators(f.ctx, chat.ID)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.False(t, signals[0].ActiveAt(f.clock.Now()))
}

func TestTypingRefreshAndReap(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	chat := f.chat(t, alice, bob)

	_, err := f.typing.SetTyping(f.ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Second)
	_, err = f.typing.SetTyping(f.ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.typing.SetTyping(f.ctx, chat.ID, bob.ID)
	require.NoError(t, err)

	signals, err := f.typing.GetTypingIndicators(f.ctx, chat.ID)
	require.NoError(t, err)
	assert.Len(t, signals, 2)

	removed, err := f.typing.ReapExpiredTyping(f.ctx, f.clock.Now().Add(3*time.Second))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = f.typing.ReapExpiredTyping(f.ctx, f.clock.Now().Add(4*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestSetTypingRequiresParticipant(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	chat := f.chat(t, alice, bob)

	_, err := f.typing.SetTyping(f.ctx, chat.ID, carol.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
