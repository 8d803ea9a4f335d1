package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// ConversationService builds each viewer's conversation list from users,
// chats, pins, read watermarks and the newest visible message.
type ConversationService struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	pins     repositories.PinRepository
	reads    *ReadService
	messages repositories.MessageRepository
	clock    clock.Clock
}

// NewConversationService builds a ConversationService.
func NewConversationService(users repositories.UserRepository, chats repositories.ChatRepository, pins repositories.PinRepository, reads *ReadService, messages repositories.MessageRepository, clk clock.Clock) *ConversationService {
	return &ConversationService{users: users, chats: chats, pins: pins, reads: reads, messages: messages, clock: clk}
}

// ListConversations returns one row per other user, sorted for display.
func (s *ConversationService) ListConversations(ctx context.Context, viewerID string) ([]models.ConversationRow, error) {
	if !canonical(&viewerID) {
		return nil, fmt.Errorf("list conversations: %w", ErrNotFound)
	}
	if _, err := s.users.GetUser(ctx, viewerID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, fmt.Errorf("list conversations: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list conversations: users: %w", err)
	}
	chats, err := s.chats.ListChatsForUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: chats: %w", err)
	}
	pins, err := s.pins.ListPins(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: pins: %w", err)
	}

	chatByPeer := make(map[string]models.Chat, len(chats))
	for _, chat := range chats {
		chatByPeer[chat.Peer(viewerID)] = chat
	}
	pinByChat := make(map[string]time.Time, len(pins))
	for _, pin := range pins {
		pinByChat[pin.ChatID] = pin.PinnedAt
	}

	now := s.clock.Now()
	rows := make([]models.ConversationRow, 0, len(users))
	for _, user := range users {
		if user.ID == viewerID {
			continue
		}
		row := models.ConversationRow{
			UserID:     user.ID,
			Name:       user.Name,
			Online:     IsOnline(user, now),
			LastSeenAt: user.LastSeenAt,
		}
		if chat, ok := chatByPeer[user.ID]; ok {
			if err := s.fillChat(ctx, &row, chat, viewerID, pinByChat); err != nil {
				return nil, fmt.Errorf("list conversations: %w", err)
			}
		}
		rows = append(rows, row)
	}

	SortConversations(rows)
	return rows, nil
}

func (s *ConversationService) fillChat(ctx context.Context, row *models.ConversationRow, chat models.Chat, viewerID string, pinByChat map[string]time.Time) error {
	row.ChatID = chat.ID
	if pinnedAt, ok := pinByChat[chat.ID]; ok {
		pinned := pinnedAt
		row.PinnedAt = &pinned
	}

	unread, err := s.reads.UnreadCount(ctx, viewerID, chat.ID)
	if err != nil {
		return err
	}
	row.UnreadCount = unread

	last, err := s.messages.LatestChatMessage(ctx, chat.ID, viewerID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("last message: %w", err)
	}
	last = last.Redacted()
	row.LastMessage = &models.LastMessage{
		MessageID: last.ID,
		Content:   last.Content,
		SenderID:  last.SenderID,
		CreatedAt: last.CreatedAt,
	}
	return nil
}

// SortConversations orders rows: pinned first (newest pin first), then rows
// with unread messages, then by last message time (newest first), then by
// name. The user id breaks any remaining tie.
func SortConversations(rows []models.ConversationRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return conversationLess(rows[i], rows[j])
	})
}

func conversationLess(a, b models.ConversationRow) bool {
	aPinned, bPinned := a.PinnedAt != nil, b.PinnedAt != nil
	if aPinned != bPinned {
		return aPinned
	}
	if aPinned && !a.PinnedAt.Equal(*b.PinnedAt) {
		return a.PinnedAt.After(*b.PinnedAt)
	}

	aUnread, bUnread := a.UnreadCount > 0, b.UnreadCount > 0
	if aUnread != bUnread {
		return aUnread
	}

	aLast, bLast := lastMessageTime(a), lastMessageTime(b)
	if !aLast.Equal(bLast) {
		return aLast.After(bLast)
	}

	aFolded, bFolded := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if aFolded != bFolded {
		return aFolded < bFolded
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.UserID < b.UserID
}

func lastMessageTime(row models.ConversationRow) time.Time {
	if row.LastMessage == nil {
		return time.Time{}
	}
	return row.LastMessage.CreatedAt
}
