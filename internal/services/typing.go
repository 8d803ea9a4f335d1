package services

import (
	"context"
	"fmt"
	"time"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// TypingService keeps the short-lived typing signals of each chat.
type TypingService struct {
	chats    repositories.ChatRepository
	typing   repositories.TypingRepository
	clock    clock.Clock
	notifier Notifier
}

// NewTypingService builds a TypingService.
func NewTypingService(chats repositories.ChatRepository, typing repositories.TypingRepository, clk clock.Clock, notifier Notifier) *TypingService {
	return &TypingService{chats: chats, typing: typing, clock: clk, notifier: orNoop(notifier)}
}

// SetTyping records that userID is typing in chatID for the next TypingTTL.
func (s *TypingService) SetTyping(ctx context.Context, chatID, userID string) (models.TypingSignal, error) {
	canonical(&chatID, &userID)
	if _, err := participantChat(ctx, s.chats, chatID, userID); err != nil {
		return models.TypingSignal{}, fmt.Errorf("set typing: %w", err)
	}
	signal := models.TypingSignal{ChatID: chatID, UserID: userID, ExpiresAt: s.clock.Now().Add(TypingTTL)}
	if err := s.typing.UpsertTyping(ctx, signal); err != nil {
		return models.TypingSignal{}, fmt.Errorf("set typing: %w", err)
	}
	expires := signal.ExpiresAt
	s.notifier.Notify(ctx, models.ChatEvent{Type: models.EventTyping, ChatID: chatID, UserID: userID, At: &expires})
	return signal, nil
}

// GetTypingIndicators returns every stored signal of the chat. Stale signals
// the sweeper has not removed yet are included; filter with ActiveAt.
func (s *TypingService) GetTypingIndicators(ctx context.Context, chatID string) ([]models.TypingSignal, error) {
	if !canonical(&chatID) {
		return []models.TypingSignal{}, nil
	}
	signals, err := s.typing.ListTyping(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get typing indicators: %w", err)
	}
	return signals, nil
}

// ReapExpiredTyping deletes signals that expired before now.
func (s *TypingService) ReapExpiredTyping(ctx context.Context, now time.Time) (int64, error) {
	removed, err := s.typing.DeleteExpiredTyping(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("reap expired typing: %w", err)
	}
	return removed, nil
}
