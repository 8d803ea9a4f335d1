package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"pairchat/internal/models"
)

var ErrReceiptNotFound = errors.New("read receipt not found")

// ReadRepository stores per user, per chat read watermarks.
type ReadRepository interface {
	GetReadReceipt(ctx context.Context, userID, chatID string) (models.ReadReceipt, error)
	// UpsertReadReceipt never moves an existing watermark backwards and
	// returns the stored receipt.
	UpsertReadReceipt(ctx context.Context, userID, chatID string, at time.Time) (models.ReadReceipt, error)
}

// ReadRepo is a sqlx implementation of ReadRepository.
type ReadRepo struct {
	db *sqlx.DB
}

// NewReadRepo constructs a ReadRepo.
func NewReadRepo(db *sqlx.DB) *ReadRepo {
	return &ReadRepo{db: db}
}

func (r *ReadRepo) GetReadReceipt(ctx context.Context, userID, chatID string) (models.ReadReceipt, error) {
	var receipt models.ReadReceipt
	err := r.db.GetContext(ctx, &receipt, `SELECT user_id, chat_id, last_read_time FROM read_receipts
        WHERE user_id=$1 AND chat_id=$2`, userID, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReadReceipt{}, ErrReceiptNotFound
	}
	return receipt, err
}

func (r *ReadRepo) UpsertReadReceipt(ctx context.Context, userID, chatID string, at time.Time) (models.ReadReceipt, error) {
	var receipt models.ReadReceipt
	err := r.db.QueryRowxContext(ctx, `INSERT INTO read_receipts (user_id, chat_id, last_read_time) VALUES ($1, $2, $3)
        ON CONFLICT (user_id, chat_id) DO UPDATE
        SET last_read_time = GREATEST(read_receipts.last_read_time, EXCLUDED.last_read_time)
        RETURNING user_id, chat_id, last_read_time`, userID, chatID, at).StructScan(&receipt)
	return receipt, err
}
