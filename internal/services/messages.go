package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// SendInput carries a new message.
type SendInput struct {
	ChatID     string
	SenderID   string
	Content    string
	Attachment *models.Attachment
}

// MessageService owns the ordered, soft-deletable message log.
type MessageService struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	clock     clock.Clock
	notifier  Notifier
	maxLength int
}

// NewMessageService builds a MessageService. A non-positive maxLength falls
// back to DefaultMaxMessageLength.
func NewMessageService(chats repositories.ChatRepository, messages repositories.MessageRepository, clk clock.Clock, notifier Notifier, maxLength int) *MessageService {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &MessageService{
		chats:     chats,
		messages:  messages,
		clock:     clk,
		notifier:  orNoop(notifier),
		maxLength: maxLength,
	}
}

// Send appends a message to the chat log.
func (s *MessageService) Send(ctx context.Context, in SendInput) (models.Message, error) {
	canonical(&in.ChatID, &in.SenderID)
	if _, err := participantChat(ctx, s.chats, in.ChatID, in.SenderID); err != nil {
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}

	attachment := in.Attachment
	if attachment != nil && strings.TrimSpace(attachment.URL) == "" {
		attachment = nil
	}
	if strings.TrimSpace(in.Content) == "" && attachment == nil {
		return models.Message{}, fmt.Errorf("send message: empty content: %w", ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Content) > s.maxLength {
		return models.Message{}, fmt.Errorf("send message: content longer than %d characters: %w", s.maxLength, ErrInvalidInput)
	}

	msg, err := s.messages.CreateChatMessage(ctx, models.Message{
		ChatID:     in.ChatID,
		SenderID:   in.SenderID,
		Content:    in.Content,
		Attachment: attachment,
		CreatedAt:  s.clock.Now(),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}

	out := msg.Redacted()
	s.notifier.Notify(ctx, models.ChatEvent{Type: models.EventMessage, ChatID: in.ChatID, Message: &out, UserID: in.SenderID})
	return out, nil
}

// List returns the chat log as seen by viewerID. An empty viewer sees every
// message.
func (s *MessageService) List(ctx context.Context, chatID, viewerID string) ([]models.Message, error) {
	canonical(&chatID, &viewerID)
	chat, err := loadChat(ctx, s.chats, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if viewerID != "" && !chat.HasParticipant(viewerID) {
		return nil, fmt.Errorf("list messages: %w", ErrNotParticipant)
	}

	msgs, err := s.messages.ListChatMessages(ctx, chatID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return redactAll(msgs), nil
}

// DeleteForMe hides the message from userID only. Repeats and unknown
// messages are no-ops.
func (s *MessageService) DeleteForMe(ctx context.Context, messageID, userID string) error {
	if !canonical(&messageID, &userID) {
		return nil
	}
	if err := s.messages.HideMessageForUser(ctx, messageID, userID); err != nil {
		return fmt.Errorf("delete for me: %w", err)
	}
	return nil
}

// DeleteForEveryone replaces the message content for both participants. Only
// the sender may do it, within DeleteWindow of sending.
func (s *MessageService) DeleteForEveryone(ctx context.Context, messageID, userID string) (models.Message, error) {
	canonical(&userID)
	if !canonical(&messageID) {
		return models.Message{}, fmt.Errorf("delete for everyone: %w", ErrNotFound)
	}
	msg, err := s.messages.GetMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return models.Message{}, fmt.Errorf("delete for everyone: %w", ErrNotFound)
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("delete for everyone: %w", err)
	}
	if msg.SenderID != userID {
		return models.Message{}, fmt.Errorf("delete for everyone: %w", ErrUnauthorized)
	}
	if msg.DeletedForEveryone {
		return msg.Redacted(), nil
	}

	now := s.clock.Now()
	if now.Sub(msg.CreatedAt) > DeleteWindow {
		return models.Message{}, fmt.Errorf("delete for everyone: %w", ErrWindowExpired)
	}

	msg, err = s.messages.MarkDeletedForEveryone(ctx, messageID, now)
	if err != nil {
		return models.Message{}, fmt.Errorf("delete for everyone: %w", err)
	}
	s.notifier.Notify(ctx, models.ChatEvent{Type: models.EventDeleteForAll, ChatID: msg.ChatID, MessageID: msg.ID, UserID: userID, At: msg.DeletedAt})
	return msg.Redacted(), nil
}

// Search returns up to SearchLimit messages of the chat matching every word of
// query, best match first.
func (s *MessageService) Search(ctx context.Context, chatID, query, viewerID string) ([]models.Message, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []models.Message{}, nil
	}
	canonical(&chatID, &viewerID)
	chat, err := loadChat(ctx, s.chats, chatID)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	if viewerID != "" && !chat.HasParticipant(viewerID) {
		return nil, fmt.Errorf("search messages: %w", ErrNotParticipant)
	}

	msgs, err := s.messages.SearchChatMessages(ctx, chatID, viewerID, terms, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return redactAll(msgs), nil
}

func redactAll(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, msg.Redacted())
	}
	return out
}
