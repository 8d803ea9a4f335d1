package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pairchat/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateChatMessage(ctx context.Context, msg models.Message) (models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	// ListChatMessages returns the chat log in send order. When viewerID is
	// set, messages the viewer hid are left out.
	ListChatMessages(ctx context.Context, chatID, viewerID string) ([]models.Message, error)
	// LatestChatMessage returns ErrMessageNotFound for an empty (or fully
	// hidden) chat.
	LatestChatMessage(ctx context.Context, chatID, viewerID string) (models.Message, error)
	HideMessageForUser(ctx context.Context, messageID, userID string) error
	MarkDeletedForEveryone(ctx context.Context, messageID string, at time.Time) (models.Message, error)
	CountUnread(ctx context.Context, chatID, userID string, since time.Time) (int, error)
	SearchChatMessages(ctx context.Context, chatID, viewerID string, terms []string, limit int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, seq, chat_id, sender_id, content, attachment_url, attachment_type, attachment_name,
        attachment_size, created_at, deleted_for_everyone, deleted_at, deleted_for`

type messageRow struct {
	models.Message
	AttachmentURL  sql.NullString `db:"attachment_url"`
	AttachmentType sql.NullString `db:"attachment_type"`
	AttachmentName sql.NullString `db:"attachment_name"`
	AttachmentSize sql.NullInt64  `db:"attachment_size"`
}

func (r messageRow) toModel() models.Message {
	msg := r.Message
	if r.AttachmentURL.Valid && r.AttachmentURL.String != "" {
		msg.Attachment = &models.Attachment{
			URL:  r.AttachmentURL.String,
			Type: r.AttachmentType.String,
			Name: r.AttachmentName.String,
			Size: r.AttachmentSize.Int64,
		}
	}
	return msg
}

func rowsToModels(rows []messageRow) []models.Message {
	msgs := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toModel())
	}
	return msgs
}

// CreateChatMessage stores a message in a private chat.
func (r *MessageRepo) CreateChatMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	var att models.Attachment
	if msg.Attachment != nil {
		att = *msg.Attachment
	}

	var row messageRow
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages
        (id, chat_id, sender_id, content, attachment_url, attachment_type, attachment_name, attachment_size, created_at)
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, 0), $9)
        RETURNING `+messageColumns,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content, att.URL, att.Type, att.Name, att.Size, msg.CreatedAt).
		StructScan(&row)
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel(), nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var row messageRow
	err := r.db.GetContext(ctx, &row, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel(), nil
}

// ListChatMessages returns ordered chat messages filtered per viewer.
func (r *MessageRepo) ListChatMessages(ctx context.Context, chatID, viewerID string) ([]models.Message, error) {
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+`
        FROM messages
        WHERE chat_id=$1
        AND ($2 = '' OR NOT ($2 = ANY(deleted_for)))
        ORDER BY created_at ASC, seq ASC`, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// LatestChatMessage returns the newest message visible to viewerID.
func (r *MessageRepo) LatestChatMessage(ctx context.Context, chatID, viewerID string) (models.Message, error) {
	var row messageRow
	err := r.db.GetContext(ctx, &row, `SELECT `+messageColumns+`
        FROM messages
        WHERE chat_id=$1
        AND ($2 = '' OR NOT ($2 = ANY(deleted_for)))
        ORDER BY created_at DESC, seq DESC
        LIMIT 1`, chatID, viewerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel(), nil
}

// HideMessageForUser adds userID to the hidden set once. Unknown messages are
// ignored.
func (r *MessageRepo) HideMessageForUser(ctx context.Context, messageID, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET deleted_for = array_append(deleted_for, $2)
        WHERE id=$1 AND NOT ($2 = ANY(deleted_for))`, messageID, userID)
	return err
}

// MarkDeletedForEveryone flags the message; the first deletion time is kept.
func (r *MessageRepo) MarkDeletedForEveryone(ctx context.Context, messageID string, at time.Time) (models.Message, error) {
	var row messageRow
	err := r.db.QueryRowxContext(ctx, `UPDATE messages
        SET deleted_for_everyone = TRUE, deleted_at = COALESCE(deleted_at, $2)
        WHERE id=$1
        RETURNING `+messageColumns, messageID, at).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	return row.toModel(), nil
}

// CountUnread counts messages from the peer newer than since and not hidden
// for userID.
func (r *MessageRepo) CountUnread(ctx context.Context, chatID, userID string, since time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE chat_id=$1 AND sender_id::text <> $2 AND created_at > $3
        AND NOT ($2 = ANY(deleted_for))`, chatID, userID, since)
	return count, err
}

// SearchChatMessages runs a prefix full-text query over message content.
// Messages deleted for everyone never match.
func (r *MessageRepo) SearchChatMessages(ctx context.Context, chatID, viewerID string, terms []string, limit int) ([]models.Message, error) {
	query := PrefixTSQuery(terms)
	if query == "" {
		return []models.Message{}, nil
	}
	var rows []messageRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+`
        FROM messages
        WHERE chat_id=$1
        AND deleted_for_everyone = FALSE
        AND ($2 = '' OR NOT ($2 = ANY(deleted_for)))
        AND search_vector @@ to_tsquery('simple', $3)
        ORDER BY ts_rank(search_vector, to_tsquery('simple', $3)) DESC, created_at DESC, seq DESC
        LIMIT $4`, chatID, viewerID, query, limit)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows), nil
}

// PrefixTSQuery turns free-text terms into a to_tsquery expression where every
// word must match as a prefix. Only letters and digits survive, so user input
// cannot inject tsquery operators.
func PrefixTSQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, term := range terms {
		words := strings.FieldsFunc(strings.ToLower(term), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, word := range words {
			parts = append(parts, word+":*")
		}
	}
	return strings.Join(parts, " & ")
}
