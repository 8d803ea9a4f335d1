package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pairchat/internal/models"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) UpsertUserByName(ctx context.Context, name string, now time.Time) (models.User, bool, error) {
	args := m.Called(ctx, name, now)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Bool(1), args.Error(2)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) TouchUser(ctx context.Context, userID string, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, now)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) SetUserOffline(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) MarkStaleUsersOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateOrGetChat(ctx context.Context, user1ID, user2ID string, now time.Time) (models.Chat, bool, error) {
	args := m.Called(ctx, user1ID, user2ID, now)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) FindChat(ctx context.Context, user1ID, user2ID string) (models.Chat, error) {
	args := m.Called(ctx, user1ID, user2ID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateChatMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListChatMessages(ctx context.Context, chatID, viewerID string) ([]models.Message, error) {
	args := m.Called(ctx, chatID, viewerID)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) LatestChatMessage(ctx context.Context, chatID, viewerID string) (models.Message, error) {
	args := m.Called(ctx, chatID, viewerID)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) HideMessageForUser(ctx context.Context, messageID, userID string) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkDeletedForEveryone(ctx context.Context, messageID string, at time.Time) (models.Message, error) {
	args := m.Called(ctx, messageID, at)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, chatID, userID string, since time.Time) (int, error) {
	args := m.Called(ctx, chatID, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) SearchChatMessages(ctx context.Context, chatID, viewerID string, terms []string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, viewerID, terms, limit)
	var out []models.Message
	if val := args.Get(0); val != nil {
		out = val.([]models.Message)
	}
	return out, args.Error(1)
}

type PinRepositoryMock struct {
	mock.Mock
}

func (m *PinRepositoryMock) GetPin(ctx context.Context, userID, chatID string) (models.Pin, error) {
	args := m.Called(ctx, userID, chatID)
	var pin models.Pin
	if val := args.Get(0); val != nil {
		pin = val.(models.Pin)
	}
	return pin, args.Error(1)
}

func (m *PinRepositoryMock) ListPins(ctx context.Context, userID string) ([]models.Pin, error) {
	args := m.Called(ctx, userID)
	var pins []models.Pin
	if val := args.Get(0); val != nil {
		pins = val.([]models.Pin)
	}
	return pins, args.Error(1)
}

func (m *PinRepositoryMock) CreatePinWithLimit(ctx context.Context, pin models.Pin, limit int) (bool, error) {
	args := m.Called(ctx, pin, limit)
	return args.Bool(0), args.Error(1)
}

func (m *PinRepositoryMock) DeletePin(ctx context.Context, userID, chatID string) error {
	args := m.Called(ctx, userID, chatID)
	return args.Error(0)
}
