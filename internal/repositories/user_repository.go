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

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence.
type UserRepository interface {
	// UpsertUserByName reactivates the user called name or creates it. The
	// boolean reports whether a new row was inserted.
	UpsertUserByName(ctx context.Context, name string, now time.Time) (models.User, bool, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// TouchUser marks the user online at now. It reports false when the user
	// does not exist.
	TouchUser(ctx context.Context, userID string, now time.Time) (bool, error)
	SetUserOffline(ctx context.Context, userID string) error
	// MarkStaleUsersOffline flips every online user last seen before cutoff.
	MarkStaleUsersOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, online, last_seen_at, created_at`

// UpsertUserByName relies on the unique name index so concurrent registrations
// of one name converge on a single row.
func (r *UserRepo) UpsertUserByName(ctx context.Context, name string, now time.Time) (models.User, bool, error) {
	var row struct {
		models.User
		Inserted bool `db:"inserted"`
	}
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (id, name, online, last_seen_at, created_at)
        VALUES ($1, $2, TRUE, $3, $3)
        ON CONFLICT (name) DO UPDATE SET online = TRUE, last_seen_at = EXCLUDED.last_seen_at
        RETURNING `+userColumns+`, (xmax = 0) AS inserted`, uuid.NewString(), name, now).StructScan(&row)
	if err != nil {
		return models.User{}, false, err
	}
	return row.User, row.Inserted, nil
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns every user ordered by name.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	return users, err
}

// TouchUser refreshes presence for a heartbeat.
func (r *UserRepo) TouchUser(ctx context.Context, userID string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET online = TRUE, last_seen_at = $2 WHERE id=$1`, userID, now)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetUserOffline clears the stored online flag.
func (r *UserRepo) SetUserOffline(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET online = FALSE WHERE id=$1`, userID)
	return err
}

// MarkStaleUsersOffline is the presence sweep.
func (r *UserRepo) MarkStaleUsersOffline(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET online = FALSE WHERE online = TRUE AND last_seen_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
