package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories/memory"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.ChatEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event models.ChatEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	ctx      context.Context
	clock    *clock.Manual
	store    *memory.Store
	notifier *recordingNotifier

	identity      *IdentityService
	chats         *ChatService
	messages      *MessageService
	typing        *TypingService
	reads         *ReadService
	pins          *PinService
	conversations *ConversationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewManual(start)
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	reads := NewReadService(store, store, store, clk, notifier)
	return &fixture{
		ctx:           context.Background(),
		clock:         clk,
		store:         store,
		notifier:      notifier,
		identity:      NewIdentityService(store, clk),
		chats:         NewChatService(store, store, clk),
		messages:      NewMessageService(store, store, clk, notifier, 0),
		typing:        NewTypingService(store, store, clk, notifier),
		reads:         reads,
		pins:          NewPinService(store, store, clk),
		conversations: NewConversationService(store, store, store, reads, store, clk),
	}
}

func (f *fixture) user(t *testing.T, name string) models.User {
	t.Helper()
	user, _, err := f.identity.Register(f.ctx, name)
	require.NoError(t, err)
	return user
}

func (f *fixture) chat(t *testing.T, a, b models.User) models.Chat {
	t.Helper()
	chat, _, err := f.chats.GetOrCreate(f.ctx, a.ID, b.ID)
	require.NoError(t, err)
	return chat
}

func (f *fixture) send(t *testing.T, chat models.Chat, sender models.User, content string) models.Message {
	t.Helper()
	msg, err := f.messages.Send(f.ctx, SendInput{ChatID: chat.ID, SenderID: sender.ID, Content: content})
	require.NoError(t, err)
	return msg
}
