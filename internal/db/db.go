package db

import (
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens the database with the given driver ("postgres" for lib/pq or
// "pgx" for the pgx stdlib adapter) and runs migrations.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver != "postgres" && driver != "pgx" {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if driver == "pgx" {
		db = sqlx.NewDb(db.DB, "postgres")
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// Migrations are idempotent DDL statements applied in order on start-up.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            online BOOLEAN NOT NULL DEFAULT FALSE,
            last_seen_at TIMESTAMPTZ NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS users_online_last_seen_idx ON users (last_seen_at) WHERE online;`,
	`CREATE TABLE IF NOT EXISTS chats (
            id UUID PRIMARY KEY,
            user1_id UUID NOT NULL REFERENCES users(id),
            user2_id UUID NOT NULL REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL,
            UNIQUE(user1_id, user2_id),
            CHECK (user1_id < user2_id)
        );`,
	`CREATE INDEX IF NOT EXISTS chats_user2_idx ON chats (user2_id);`,
	`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            seq BIGSERIAL NOT NULL,
            chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            attachment_url TEXT,
            attachment_type TEXT,
            attachment_name TEXT,
            attachment_size BIGINT,
            created_at TIMESTAMPTZ NOT NULL,
            deleted_for_everyone BOOLEAN NOT NULL DEFAULT FALSE,
            deleted_at TIMESTAMPTZ,
            deleted_for TEXT[] NOT NULL DEFAULT '{}',
            search_vector TSVECTOR GENERATED ALWAYS AS (to_tsvector('simple', content)) STORED
        );`,
	`CREATE INDEX IF NOT EXISTS messages_chat_created_idx ON messages (chat_id, created_at, seq);`,
	`CREATE INDEX IF NOT EXISTS messages_search_idx ON messages USING GIN (search_vector);`,
	`CREATE TABLE IF NOT EXISTS typing_signals (
            chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id),
            expires_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY(chat_id, user_id)
        );`,
	`CREATE INDEX IF NOT EXISTS typing_signals_expires_idx ON typing_signals (expires_at);`,
	`CREATE TABLE IF NOT EXISTS pins (
            user_id UUID NOT NULL REFERENCES users(id),
            chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            pinned_at TIMESTAMPTZ NOT NULL,
            PRIMARY KEY(user_id, chat_id)
        );`,
	`CREATE TABLE IF NOT EXISTS read_receipts (
            user_id UUID NOT NULL REFERENCES users(id),
            chat_id UUID NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            last_read_time TIMESTAMPTZ NOT NULL,
            PRIMARY KEY(user_id, chat_id)
        );`,
}

func runMigrations(db *sqlx.DB) error {
	for _, m := range Migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Printf("database migrations applied count=%d", len(Migrations))
	return nil
}
