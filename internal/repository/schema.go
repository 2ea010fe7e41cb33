package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    code CHAR(6) NOT NULL UNIQUE,
    partner_id UUID,
    anniversary DATE,
    profile_image_url TEXT,
    onboarded BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS partnerships (
    id UUID PRIMARY KEY,
    user_a_id UUID NOT NULL UNIQUE REFERENCES users(id),
    user_b_id UUID NOT NULL UNIQUE REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
    id UUID PRIMARY KEY,
    partnership_id UUID NOT NULL,
    sender_id UUID NOT NULL,
    sender_name TEXT NOT NULL,
    content_type TEXT NOT NULL,
    image_url TEXT,
    note_text TEXT,
    drawing_data TEXT,
    status_emoji TEXT,
    status_text TEXT,
    caption TEXT,
    read BOOLEAN NOT NULL DEFAULT FALSE,
    read_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS devices (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    token TEXT NOT NULL UNIQUE,
    platform TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    last_used_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_content_partnership_created ON content(partnership_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_content_unread ON content(partnership_id, read) WHERE NOT read;
CREATE INDEX IF NOT EXISTS idx_devices_user_id ON devices(user_id);
CREATE INDEX IF NOT EXISTS idx_devices_last_used ON devices(last_used_at);
`

// Migrate executes the embedded schema against the database.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
