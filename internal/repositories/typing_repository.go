package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"pairchat/internal/models"
)

// TypingRepository stores short-lived typing signals.
type TypingRepository interface {
	UpsertTyping(ctx context.Context, signal models.TypingSignal) error
	ListTyping(ctx context.Context, chatID string) ([]models.TypingSignal, error)
	DeleteExpiredTyping(ctx context.Context, now time.Time) (int64, error)
}

// TypingRepo is a sqlx implementation of TypingRepository.
type TypingRepo struct {
	db *sqlx.DB
}

// NewTypingRepo constructs a TypingRepo.
func NewTypingRepo(db *sqlx.DB) *TypingRepo {
	return &TypingRepo{db: db}
}

// UpsertTyping writes one row per (chat, user).
func (r *TypingRepo) UpsertTyping(ctx context.Context, signal models.TypingSignal) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO typing_signals (chat_id, user_id, expires_at) VALUES ($1, $2, $3)
        ON CONFLICT (chat_id, user_id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		signal.ChatID, signal.UserID, signal.ExpiresAt)
	return err
}

// ListTyping returns every stored signal of a chat, stale ones included.
func (r *TypingRepo) ListTyping(ctx context.Context, chatID string) ([]models.TypingSignal, error) {
	signals := []models.TypingSignal{}
	err := r.db.SelectContext(ctx, &signals, `SELECT chat_id, user_id, expires_at FROM typing_signals
        WHERE chat_id=$1 ORDER BY user_id ASC`, chatID)
	return signals, err
}

// DeleteExpiredTyping removes signals that expired strictly before now.
func (r *TypingRepo) DeleteExpiredTyping(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM typing_signals WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
