package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pairchat/internal/clock"
	"pairchat/internal/models"
	"pairchat/internal/repositories"
)

// IdentityService registers display-name users and tracks their presence.
type IdentityService struct {
	users repositories.UserRepository
	clock clock.Clock
}

// NewIdentityService builds an IdentityService.
func NewIdentityService(users repositories.UserRepository, clk clock.Clock) *IdentityService {
	return &IdentityService{users: users, clock: clk}
}

// IsOnline applies the display rule: the stored flag alone is not enough, the
// last heartbeat must also be recent.
func IsOnline(user models.User, now time.Time) bool {
	return user.Online && now.Sub(user.LastSeenAt) < OnlineWindow
}

func withPresence(user models.User, now time.Time) models.User {
	user.Online = IsOnline(user, now)
	return user
}

// Register returns the user called name, reactivating it when it exists.
func (s *IdentityService) Register(ctx context.Context, name string) (models.User, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, false, fmt.Errorf("register: empty name: %w", ErrInvalidInput)
	}
	now := s.clock.Now()
	user, created, err := s.users.UpsertUserByName(ctx, name, now)
	if err != nil {
		return models.User{}, false, fmt.Errorf("register: %w", err)
	}
	return withPresence(user, now), created, nil
}

// Heartbeat refreshes presence. Unknown users are ignored.
func (s *IdentityService) Heartbeat(ctx context.Context, userID string) error {
	if !canonical(&userID) {
		return nil
	}
	if _, err := s.users.TouchUser(ctx, userID, s.clock.Now()); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}

// Logout marks the user offline regardless of the last heartbeat.
func (s *IdentityService) Logout(ctx context.Context, userID string) error {
	if !canonical(&userID) {
		return nil
	}
	if err := s.users.SetUserOffline(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// GetUser fetches a user with its effective online flag.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (models.User, error) {
	if !canonical(&userID) {
		return models.User{}, ErrNotFound
	}
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return withPresence(user, s.clock.Now()), nil
}

// ListUsers returns every user except exceptID.
func (s *IdentityService) ListUsers(ctx context.Context, exceptID string) ([]models.User, error) {
	canonical(&exceptID)
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	now := s.clock.Now()
	out := make([]models.User, 0, len(users))
	for _, user := range users {
		if user.ID == exceptID {
			continue
		}
		out = append(out, withPresence(user, now))
	}
	return out, nil
}

// ReapStaleOnline flips users whose last heartbeat is older than
// PresenceReapAfter to offline.
func (s *IdentityService) ReapStaleOnline(ctx context.Context, now time.Time) (int64, error) {
	changed, err := s.users.MarkStaleUsersOffline(ctx, now.Add(-PresenceReapAfter))
	if err != nil {
		return 0, fmt.Errorf("reap stale online: %w", err)
	}
	return changed, nil
}
