package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// Epoch is the read watermark of a chat the user never opened.
var Epoch = time.Unix(0, 0).UTC()

// ReadService tracks how far each user has read each chat.
type ReadService struct {
	chats    repositories.ChatRepository
	reads    repositories.ReadRepository
	messages repositories.MessageRepository
	clock    clock.Clock
	notifier Notifier
}

// NewReadService builds a ReadService.
func NewReadService(chats repositories.ChatRepository, reads repositories.ReadRepository, messages repositories.MessageRepository, clk clock.Clock, notifier Notifier) *ReadService {
	return &ReadService{chats: chats, reads: reads, messages: messages, clock: clk, notifier: orNoop(notifier)}
}

// LastReadTime returns the watermark or Epoch when none exists.
func (s *ReadService) LastReadTime(ctx context.Context, userID, chatID string) (time.Time, error) {
	if !canonical(&userID, &chatID) {
		return Epoch, nil
	}
	receipt, err := s.reads.GetReadReceipt(ctx, userID, chatID)
	if errors.Is(err, repositories.ErrReceiptNotFound) {
		return Epoch, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last read time: %w", err)
	}
	return receipt.LastReadTime, nil
}

// MarkRead moves the watermark to now. It never moves backwards.
func (s *ReadService) MarkRead(ctx context.Context, userID, chatID string) (models.ReadReceipt, error) {
	canonical(&userID, &chatID)
	if _, err := participantChat(ctx, s.chats, chatID, userID); err != nil {
		return models.ReadReceipt{}, fmt.Errorf("mark read: %w", err)
	}
	receipt, err := s.reads.UpsertReadReceipt(ctx, userID, chatID, s.clock.Now())
	if err != nil {
		return models.ReadReceipt{}, fmt.Errorf("mark read: %w", err)
	}
	at := receipt.LastReadTime
	s.notifier.Notify(ctx, models.ChatEvent{Type: models.EventRead, ChatID: chatID, UserID: userID, At: &at})
	return receipt, nil
}

// UnreadCount counts the peer's messages newer than the watermark, leaving out
// messages userID hid.
func (s *ReadService) UnreadCount(ctx context.Context, userID, chatID string) (int, error) {
	if !canonical(&userID, &chatID) {
		return 0, nil
	}
	since, err := s.LastReadTime(ctx, userID, chatID)
	if err != nil {
		return 0, err
	}
	count, err := s.messages.CountUnread(ctx, chatID, userID, since)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}
