package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairchat/internal/models"
)

func conversationNames(rows []models.ConversationRow) []string {
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names
}

func TestListConversationsOrdering(t *testing.T) {
	f := newFixture(t)
	viewer := f.user(t, "viewer")
	x := f.user(t, "X")
	y := f.user(t, "Y")
	f.user(t, "Z")

	chatX := f.chat(t, viewer, x)
	chatY := f.chat(t, viewer, y)

	f.clock.Set(start.Add(50 * time.Second))
	f.send(t, chatY, y, "hey")
	f.send(t, chatY, y, "you there?")

	f.clock.Set(start.Add(100 * time.Second))
	_, err := f.pins.Pin(f.ctx, viewer.ID, chatX.ID)
	require.NoError(t, err)

	rows, err := f.conversations.ListConversations(f.ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "Z"}, conversationNames(rows))

	require.NotNil(t, rows[0].PinnedAt)
	assert.Equal(t, start.Add(100*time.Second), *rows[0].PinnedAt)
	assert.Equal(t, chatX.ID, rows[0].ChatID)
	assert.Nil(t, rows[0].LastMessage)

	assert.Equal(t, 2, rows[1].UnreadCount)
	require.NotNil(t, rows[1].LastMessage)
	assert.Equal(t, "you there?", rows[1].LastMessage.Content)
	assert.Equal(t, y.ID, rows[1].LastMessage.SenderID)

	assert.Empty(t, rows[2].ChatID)
	assert.Zero(t, rows[2].UnreadCount)
}

func TestListConversationsLastMessageVisibility(t *testing.T) {
	f := newFixture(t)
	viewer := f.user(t, "viewer")
	peer := f.user(t, "peer")
	chat := f.chat(t, viewer, peer)

	first := f.send(t, chat, peer, "first")
	f.clock.Advance(time.Second)
	second := f.send(t, chat, peer, "second")

	require.NoError(t, f.messages.DeleteForMe(f.ctx, second.ID, viewer.ID))
	rows, err := f.conversations.ListConversations(f.ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].LastMessage)
	assert.Equal(t, first.ID, rows[0].LastMessage.MessageID)
	assert.Equal(t, 1, rows[0].UnreadCount)

	_, err = f.messages.DeleteForEveryone(f.ctx, first.ID, peer.ID)
	require.NoError(t, err)
	rows, err = f.conversations.ListConversations(f.ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeletedPlaceholder, rows[0].LastMessage.Content)
}

func TestListConversationsPresence(t *testing.T) {
	f := newFixture(t)
	viewer := f.user(t, "viewer")
	f.user(t, "peer")

	f.clock.Advance(31 * time.Second)
	require.NoError(t, f.identity.Heartbeat(f.ctx, viewer.ID))

	rows, err := f.conversations.ListConversations(f.ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Online)
}

func TestListConversationsUnknownViewer(t *testing.T) {
	f := newFixture(t)

	_, err := f.conversations.ListConversations(f.ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSortConversations(t *testing.T) {
	at := func(sec int) *time.Time {
		ts := start.Add(time.Duration(sec) * time.Second)
		return &ts
	}
	msgAt := func(sec int) *models.LastMessage {
		return &models.LastMessage{CreatedAt: *at(sec)}
	}

	rows := []models.ConversationRow{
		{UserID: "7", Name: "bob"},
		{UserID: "6", Name: "Bob"},
		{UserID: "5", Name: "alice"},
		{UserID: "4", Name: "recent", LastMessage: msgAt(30)},
		{UserID: "3", Name: "older", LastMessage: msgAt(10)},
		{UserID: "2", Name: "unread", UnreadCount: 1, LastMessage: msgAt(5)},
		{UserID: "1", Name: "old pin", PinnedAt: at(1)},
		{UserID: "0", Name: "new pin", PinnedAt: at(2), UnreadCount: 0},
		{UserID: "8", Name: "bob"},
	}
	SortConversations(rows)

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	assert.Equal(t, []string{"0", "1", "2", "4", "3", "5", "6", "7", "8"}, ids)
}
