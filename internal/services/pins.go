package services

import (
	"context"
	"errors"
	"fmt"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// PinService manages the few chats a user keeps at the top of the list.
type PinService struct {
	chats repositories.ChatRepository
	pins  repositories.PinRepository
	clock clock.Clock
}

// NewPinService builds a PinService.
func NewPinService(chats repositories.ChatRepository, pins repositories.PinRepository, clk clock.Clock) *PinService {
	return &PinService{chats: chats, pins: pins, clock: clk}
}

// Pin pins chatID for userID. Pinning twice keeps the original pinnedAt.
func (s *PinService) Pin(ctx context.Context, userID, chatID string) (models.Pin, error) {
	canonical(&userID, &chatID)
	if _, err := participantChat(ctx, s.chats, chatID, userID); err != nil {
		return models.Pin{}, fmt.Errorf("pin chat: %w", err)
	}

	pin := models.Pin{UserID: userID, ChatID: chatID, PinnedAt: s.clock.Now()}
	created, err := s.pins.CreatePinWithLimit(ctx, pin, MaxPinsPerUser)
	if errors.Is(err, repositories.ErrPinLimitReached) {
		return models.Pin{}, fmt.Errorf("pin chat: at most %d pins: %w", MaxPinsPerUser, ErrLimitExceeded)
	}
	if err != nil {
		return models.Pin{}, fmt.Errorf("pin chat: %w", err)
	}
	if created {
		return pin, nil
	}

	existing, err := s.pins.GetPin(ctx, userID, chatID)
	if err != nil {
		return models.Pin{}, fmt.Errorf("pin chat: %w", err)
	}
	return existing, nil
}

// Unpin removes the pin if present.
func (s *PinService) Unpin(ctx context.Context, userID, chatID string) error {
	if !canonical(&userID, &chatID) {
		return nil
	}
	if err := s.pins.DeletePin(ctx, userID, chatID); err != nil {
		return fmt.Errorf("unpin chat: %w", err)
	}
	return nil
}

// ListPins returns the user's pins, most recently pinned first.
func (s *PinService) ListPins(ctx context.Context, userID string) ([]models.Pin, error) {
	if !canonical(&userID) {
		return []models.Pin{}, nil
	}
	pins, err := s.pins.ListPins(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pins: %w", err)
	}
	return pins, nil
}
