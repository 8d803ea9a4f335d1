package services

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"pairchat/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrWindowExpired  = errors.New("delete window expired")
	ErrLimitExceeded  = errors.New("pin limit exceeded")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotParticipant = errors.New("not a chat participant")
)

const (
	// OnlineWindow is how recent a heartbeat must be for a user to show online.
	OnlineWindow = 30 * time.Second
	// PresenceReapAfter is the heartbeat age at which the sweeper flips users offline.
	PresenceReapAfter = 60 * time.Second
	TypingTTL         = 3 * time.Second
	DeleteWindow      = 10 * time.Minute
	MaxPinsPerUser    = 3
	SearchLimit       = 10

	DefaultMaxMessageLength = 5000
)

// validID reports whether id could name a stored record. Malformed ids are
// treated as missing records instead of reaching the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// canonical rewrites each id in place to its canonical spelling. It reports
// false when any id is malformed; malformed ids are left as they are.
func canonical(ids ...*string) bool {
	ok := true
	for _, id := range ids {
		norm, valid := models.CanonicalID(*id)
		if !valid {
			ok = false
			continue
		}
		*id = norm
	}
	return ok
}
