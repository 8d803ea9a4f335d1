package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat represents a private chat between exactly two users. User1ID always
// sorts before User2ID.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	User1ID   string    `db:"user1_id" json:"user1_id"`
	User2ID   string    `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is one of the two chat members.
func (c Chat) HasParticipant(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Peer returns the other participant. It returns "" when userID is not a member.
func (c Chat) Peer(userID string) string {
	switch userID {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	default:
		return ""
	}
}

// CanonicalID returns the lowercase hyphenated spelling of a uuid id. uuid.Parse
// also accepts uppercase, braced and urn:uuid: forms, and every id comparison
// in this module is a plain string compare.
func CanonicalID(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// CanonicalPair orders two user ids so that (a, b) and (b, a) map to one chat.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Pin marks a chat as favorited by a user.
type Pin struct {
	UserID   string    `db:"user_id" json:"user_id"`
	ChatID   string    `db:"chat_id" json:"chat_id"`
	PinnedAt time.Time `db:"pinned_at" json:"pinned_at"`
}

// ReadReceipt is the per user, per chat read watermark.
type ReadReceipt struct {
	UserID       string    `db:"user_id" json:"user_id"`
	ChatID       string    `db:"chat_id" json:"chat_id"`
	LastReadTime time.Time `db:"last_read_time" json:"last_read_time"`
}

// TypingSignal is a short-lived "user is typing" marker.
type TypingSignal struct {
	ChatID    string    `db:"chat_id" json:"chat_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// ActiveAt reports whether the signal is still live at now.
func (t TypingSignal) ActiveAt(now time.Time) bool {
	return t.ExpiresAt.After(now)
}
