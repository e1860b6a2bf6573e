package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/watchly/watchly/go/internal/dbconfig"
)

// Creates the schema and seeds a demo watch party: three users, a room with
// a queue, a friendship and a pending friend request. Idempotent.

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		display_name TEXT,
		avatar_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS friendships (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		friend_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		id UUID PRIMARY KEY,
		from_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		video_url TEXT NOT NULL,
		created_by UUID NOT NULL REFERENCES users(id),
		password_hash TEXT,
		current_time_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
		is_playing BOOLEAN NOT NULL DEFAULT false,
		voice_chat_enabled BOOLEAN NOT NULL DEFAULT false,
		schema_version INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS room_members (
		room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_host BOOLEAN NOT NULL DEFAULT false,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (room_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS room_queue (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		video_url TEXT NOT NULL,
		added_by UUID NOT NULL REFERENCES users(id),
		position INT NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS room_invites (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL,
		from_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		to_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id),
		body TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS voice_signals (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL,
		from_user_id UUID NOT NULL,
		target_user_id UUID NOT NULL,
		signal_type TEXT NOT NULL,
		payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS room_outbox (
		id UUID PRIMARY KEY,
		room_id UUID NOT NULL,
		event_type TEXT NOT NULL,
		payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		sent_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_room_outbox_unsent ON room_outbox (created_at) WHERE sent_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_voice_signals_target ON voice_signals (room_id, target_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages (room_id, sent_at)`,
}

type demoUser struct {
	id       string
	username string
	email    string
}

var demoUsers = []demoUser{
	{"6f1f2a10-0000-4000-8000-000000000001", "ana", "ana@example.com"},
	{"6f1f2a10-0000-4000-8000-000000000002", "ben", "ben@example.com"},
	{"6f1f2a10-0000-4000-8000-000000000003", "cleo", "cleo@example.com"},
}

const demoRoomID = "6f1f2a10-0000-4000-8000-0000000000aa"

func main() {
	ctx := context.Background()

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			fmt.Fprintf(os.Stderr, "schema: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Println("schema ready")

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}

	inserted := 0
	for _, u := range demoUsers {
		tag, err := pool.Exec(ctx, `
			INSERT INTO users (id, username, email, password_hash, display_name, created_at)
			VALUES ($1, $2, $3, $4, initcap($2), now())
			ON CONFLICT (username) DO NOTHING`,
			u.id, u.username, u.email, string(hash),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert user %s: %v\n", u.username, err)
			os.Exit(1)
		}
		inserted += int(tag.RowsAffected())
	}
	fmt.Printf("users: %d inserted, %d existing\n", inserted, len(demoUsers)-inserted)

	// ana and ben are friends; cleo has a pending request to ana
	if _, err := pool.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id)
		VALUES ($1, $2), ($2, $1)
		ON CONFLICT DO NOTHING`,
		demoUsers[0].id, demoUsers[1].id,
	); err != nil {
		fmt.Fprintf(os.Stderr, "insert friendship: %v\n", err)
		os.Exit(1)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO friend_requests (id, from_user_id, to_user_id)
		SELECT gen_random_uuid(), $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM friend_requests WHERE from_user_id = $1 AND to_user_id = $2
		)`,
		demoUsers[2].id, demoUsers[0].id,
	); err != nil {
		fmt.Fprintf(os.Stderr, "insert friend request: %v\n", err)
		os.Exit(1)
	}

	// ana hosts a room with ben watching and one queued video
	if _, err := pool.Exec(ctx, `
		INSERT INTO rooms (id, name, video_url, created_by, voice_chat_enabled)
		VALUES ($1, 'movie night', 'https://example.com/first.mp4', $2, true)
		ON CONFLICT (id) DO NOTHING`,
		demoRoomID, demoUsers[0].id,
	); err != nil {
		fmt.Fprintf(os.Stderr, "insert room: %v\n", err)
		os.Exit(1)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id, is_host)
		VALUES ($1, $2, true), ($1, $3, false)
		ON CONFLICT DO NOTHING`,
		demoRoomID, demoUsers[0].id, demoUsers[1].id,
	); err != nil {
		fmt.Fprintf(os.Stderr, "insert members: %v\n", err)
		os.Exit(1)
	}
	if _, err := pool.Exec(ctx, `
		INSERT INTO room_queue (id, room_id, video_url, added_by, position)
		SELECT gen_random_uuid(), $1, 'https://example.com/second.mp4', $2, 1
		WHERE NOT EXISTS (SELECT 1 FROM room_queue WHERE room_id = $1)`,
		demoRoomID, demoUsers[1].id,
	); err != nil {
		fmt.Fprintf(os.Stderr, "insert queue: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("demo data ready: room 'movie night' hosted by ana")
}
