package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pairchat/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence. Pairs passed in must already be
// in canonical order (see models.CanonicalPair).
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, user1ID, user2ID string, now time.Time) (models.Chat, bool, error)
	FindChat(ctx context.Context, user1ID, user2ID string) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, user1_id, user2_id, created_at`

// CreateOrGetChat inserts the pair unless it exists. The unique (user1_id,
// user2_id) constraint arbitrates concurrent first contact: the loser of the
// race inserts nothing and reads the winner's row.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, user1ID, user2ID string, now time.Time) (models.Chat, bool, error) {
	chat, err := r.FindChat(ctx, user1ID, user2ID)
	if err == nil {
		return chat, false, nil
	}
	if !errors.Is(err, ErrChatNotFound) {
		return models.Chat{}, false, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO chats (id, user1_id, user2_id, created_at) VALUES ($1, $2, $3, $4)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING `+chatColumns, uuid.NewString(), user1ID, user2ID, now).StructScan(&chat)
	if errors.Is(err, sql.ErrNoRows) {
		chat, err = r.FindChat(ctx, user1ID, user2ID)
		return chat, false, err
	}
	if err != nil {
		return models.Chat{}, false, err
	}
	return chat, true, nil
}

// FindChat looks a chat up by its canonical pair.
func (r *ChatRepo) FindChat(ctx context.Context, user1ID, user2ID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE user1_id=$1 AND user2_id=$2`, user1ID, user2ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChatsForUser returns every chat the user participates in.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `SELECT `+chatColumns+` FROM chats
        WHERE user1_id=$1 OR user2_id=$1
        ORDER BY created_at DESC`, userID)
	return chats, err
}
