package services

import (
	"context"
	"errors"
	"fmt"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// ChatService resolves the single private chat between two users.
type ChatService struct {
	users repositories.UserRepository
	chats repositories.ChatRepository
	clock clock.Clock
}

// NewChatService builds a ChatService.
func NewChatService(users repositories.UserRepository, chats repositories.ChatRepository, clk clock.Clock) *ChatService {
	return &ChatService{users: users, chats: chats, clock: clk}
}

// GetOrCreate returns the chat of the unordered pair (userA, userB), creating
// it on first contact. The boolean reports creation.
func (s *ChatService) GetOrCreate(ctx context.Context, userA, userB string) (models.Chat, bool, error) {
	canonical(&userA, &userB)
	if userA == userB {
		return models.Chat{}, false, fmt.Errorf("get or create chat: cannot chat with yourself: %w", ErrInvalidInput)
	}
	for _, id := range []string{userA, userB} {
		if err := s.requireUser(ctx, id); err != nil {
			return models.Chat{}, false, err
		}
	}

	user1, user2 := models.CanonicalPair(userA, userB)
	chat, created, err := s.chats.CreateOrGetChat(ctx, user1, user2, s.clock.Now())
	if err != nil {
		return models.Chat{}, false, fmt.Errorf("get or create chat: %w", err)
	}
	return chat, created, nil
}

func (s *ChatService) requireUser(ctx context.Context, userID string) error {
	if !validID(userID) {
		return fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	_, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	return nil
}

// GetDetails fetches a chat by id.
func (s *ChatService) GetDetails(ctx context.Context, chatID string) (models.Chat, error) {
	canonical(&chatID)
	return loadChat(ctx, s.chats, chatID)
}

// IsParticipant reports whether userID belongs to the chat. A missing chat is
// ErrNotFound.
func (s *ChatService) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	canonical(&chatID, &userID)
	chat, err := loadChat(ctx, s.chats, chatID)
	if err != nil {
		return false, err
	}
	return chat.HasParticipant(userID), nil
}

func loadChat(ctx context.Context, chats repositories.ChatRepository, chatID string) (models.Chat, error) {
	if !validID(chatID) {
		return models.Chat{}, ErrNotFound
	}
	chat, err := chats.GetChat(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		return models.Chat{}, ErrNotFound
	}
	if err != nil {
		return models.Chat{}, fmt.Errorf("load chat: %w", err)
	}
	return chat, nil
}

// participantChat loads the chat and checks membership, the guard shared by
// every per-chat mutation. Callers pass canonical ids.
func participantChat(ctx context.Context, chats repositories.ChatRepository, chatID, userID string) (models.Chat, error) {
	chat, err := loadChat(ctx, chats, chatID)
	if err != nil {
		return models.Chat{}, err
	}
	if !chat.HasParticipant(userID) {
		return models.Chat{}, ErrNotParticipant
	}
	return chat, nil
}
