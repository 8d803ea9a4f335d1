package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"pairchat/internal/models"
)

var (
	ErrPinNotFound     = errors.New("pin not found")
	ErrPinLimitReached = errors.New("pin limit reached")
)

// PinRepository abstracts per-user chat pins.
type PinRepository interface {
	GetPin(ctx context.Context, userID, chatID string) (models.Pin, error)
	ListPins(ctx context.Context, userID string) ([]models.Pin, error)
	// CreatePinWithLimit inserts the pin unless the user already holds limit
	// pins. It reports false when the pin already existed.
	CreatePinWithLimit(ctx context.Context, pin models.Pin, limit int) (bool, error)
	DeletePin(ctx context.Context, userID, chatID string) error
}

// PinRepo is a sqlx implementation of PinRepository.
type PinRepo struct {
	db *sqlx.DB
}

// NewPinRepo constructs a PinRepo.
func NewPinRepo(db *sqlx.DB) *PinRepo {
	return &PinRepo{db: db}
}

const pinColumns = `user_id, chat_id, pinned_at`

func (r *PinRepo) GetPin(ctx context.Context, userID, chatID string) (models.Pin, error) {
	var pin models.Pin
	err := r.db.GetContext(ctx, &pin, `SELECT `+pinColumns+` FROM pins WHERE user_id=$1 AND chat_id=$2`, userID, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Pin{}, ErrPinNotFound
	}
	return pin, err
}

func (r *PinRepo) ListPins(ctx context.Context, userID string) ([]models.Pin, error) {
	pins := []models.Pin{}
	err := r.db.SelectContext(ctx, &pins, `SELECT `+pinColumns+` FROM pins WHERE user_id=$1
        ORDER BY pinned_at DESC, chat_id ASC`, userID)
	return pins, err
}

// CreatePinWithLimit serializes pin writes of one user with a transaction
// scoped advisory lock so the count and the insert cannot interleave.
func (r *PinRepo) CreatePinWithLimit(ctx context.Context, pin models.Pin, limit int) (created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin pin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pin.UserID); err != nil {
		return false, err
	}

	var exists bool
	if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM pins WHERE user_id=$1 AND chat_id=$2)`, pin.UserID, pin.ChatID); err != nil {
		return false, err
	}
	if exists {
		return false, tx.Commit()
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM pins WHERE user_id=$1`, pin.UserID); err != nil {
		return false, err
	}
	if count >= limit {
		err = ErrPinLimitReached
		return false, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO pins (user_id, chat_id, pinned_at) VALUES ($1, $2, $3)`,
		pin.UserID, pin.ChatID, pin.PinnedAt); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PinRepo) DeletePin(ctx context.Context, userID, chatID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pins WHERE user_id=$1 AND chat_id=$2`, userID, chatID)
	return err
}
