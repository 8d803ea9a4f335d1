package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnreadCountFollowsWatermark(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	chat := f.chat(t, alice, bob)

	last, err := f.reads.LastReadTime(f.ctx, bob.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, Epoch, last)

	f.send(t, chat, alice, "one")
	f.clock.Advance(time.Second)
	hidden := f.send(t, chat, alice, "two")
	f.clock.Advance(time.Second)
	f.send(t, chat, bob, "reply")

	count, err := f.reads.UnreadCount(f.ctx, bob.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, f.messages.DeleteForMe(f.ctx, hidden.ID, bob.ID))
	count, err = f.reads.UnreadCount(f.ctx, bob.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	f.clock.Advance(time.Second)
	receipt, err := f.reads.MarkRead(f.ctx, bob.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), receipt.LastReadTime)

	count, err = f.reads.UnreadCount(f.ctx, bob.ID, chat.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.reads.UnreadCount(f.ctx, alice.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMarkReadNeverMovesBackwards(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	chat := f.chat(t, alice, bob)

	f.clock.Advance(time.Minute)
	first, err := f.reads.MarkRead(f.ctx, alice.ID, chat.ID)
	require.NoError(t, err)

	f.clock.Set(start)
	second, err := f.reads.MarkRead(f.ctx, alice.ID, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, first.LastReadTime, second.LastReadTime)
}

func TestMarkReadGuards(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	chat := f.chat(t, alice, bob)

	_, err := f.reads.MarkRead(f.ctx, carol.ID, chat.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.reads.MarkRead(f.ctx, alice.ID, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
