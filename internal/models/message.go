package models

import (
	"time"

	"github.com/lib/pq"
)

// DeletedPlaceholder replaces the content of messages deleted for everyone.
const DeletedPlaceholder = "This message was deleted for everyone."

// Attachment describes a file stored in the external object store.
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Message represents a chat message.
type Message struct {
	ID                 string         `db:"id" json:"id"`
	Seq                int64          `db:"seq" json:"-"`
	ChatID             string         `db:"chat_id" json:"chat_id"`
	SenderID           string         `db:"sender_id" json:"sender_id"`
	Content            string         `db:"content" json:"content"`
	Attachment         *Attachment    `db:"-" json:"attachment,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	DeletedForEveryone bool           `db:"deleted_for_everyone" json:"deleted_for_everyone"`
	DeletedAt          *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
	DeletedFor         pq.StringArray `db:"deleted_for" json:"-"`
}

// HiddenFor reports whether userID removed the message from their own view.
func (m Message) HiddenFor(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range m.DeletedFor {
		if id == userID {
			return true
		}
	}
	return false
}

// Redacted returns the reader-facing copy of m: messages deleted for everyone
// lose their content and attachment but keep their position.
func (m Message) Redacted() Message {
	out := m
	out.DeletedFor = nil
	if m.DeletedForEveryone {
		out.Content = DeletedPlaceholder
		out.Attachment = nil
	}
	return out
}

// ChatEvent is broadcasted through websockets and the event bus.
type ChatEvent struct {
	Type      string     `json:"type"`
	ChatID    string     `json:"chat_id"`
	Message   *Message   `json:"message,omitempty"`
	MessageID string     `json:"message_id,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	At        *time.Time `json:"at,omitempty"`
}

// Chat event types.
const (
	EventMessage      = "message"
	EventDeleteForAll = "delete_for_all"
	EventTyping       = "typing"
	EventRead         = "read"
)
