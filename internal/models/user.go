package models

import "time"

// User is a display-name identity with a stored presence flag.
type User struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Online     bool      `db:"online" json:"online"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ConversationRow is one entry of a viewer's conversation list.
type ConversationRow struct {
	UserID      string       `json:"user_id"`
	Name        string       `json:"name"`
	Online      bool         `json:"online"`
	LastSeenAt  time.Time    `json:"last_seen_at"`
	ChatID      string       `json:"chat_id,omitempty"`
	PinnedAt    *time.Time   `json:"pinned_at,omitempty"`
	UnreadCount int          `json:"unread_count"`
	LastMessage *LastMessage `json:"last_message,omitempty"`
}

// LastMessage summarizes the newest visible message of a chat.
type LastMessage struct {
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}
