package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/events"
	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/outbox"
	"github.com/watchly/watchly/go/internal/sqlutil"
)

const (
	maxMessageLength   = 2000
	defaultRecentLimit = 100
)

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("message body is empty")

// MemberChecker verifies room membership before a post.
type MemberChecker interface {
	GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error)
}

// UserLookup resolves usernames for message payloads.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// App handles room chat. Posting commits the message row and its ChatMessage
// outbox event in one transaction so every member sees it exactly once.
type App struct {
	db         *sql.DB
	repo       *Repository
	outboxRepo *outbox.Repository
	members    MemberChecker
	users      UserLookup
}

// NewApp creates a new chat App
func NewApp(db *sql.DB, repo *Repository, outboxRepo *outbox.Repository, members MemberChecker, users UserLookup) *App {
	return &App{
		db:         db,
		repo:       repo,
		outboxRepo: outboxRepo,
		members:    members,
		users:      users,
	}
}

// PostMessage appends a message to the room chat. Members only.
func (a *App) PostMessage(ctx context.Context, roomID, userID uuid.UUID, body string) (*models.ChatMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len(body) > maxMessageLength {
		return nil, fmt.Errorf("message exceeds %d characters", maxMessageLength)
	}

	if _, err := a.members.GetMember(ctx, roomID, userID); err != nil {
		return nil, err
	}

	username := ""
	if user, err := a.users.GetUser(ctx, userID); err == nil {
		username = user.Username
	}

	var msg *models.ChatMessage
	err := sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		var err error
		msg, err = q.InsertMessage(ctx, roomID, userID, body)
		if err != nil {
			return err
		}
		return a.outboxRepo.InsertEvent(ctx, q.Tx(), roomID, events.TypeChatMessage, events.ChatMessagePayload{
			MessageID: msg.ID.String(),
			UserID:    userID.String(),
			Username:  username,
			Body:      msg.Body,
			SentAt:    msg.SentAt,
		})
	})
	if err != nil {
		return nil, err
	}
	msg.Username = username

	log.Debug().
		Str("room_id", roomID.String()).
		Str("message_id", msg.ID.String()).
		Msg("posted chat message")
	return msg, nil
}

// ListRecent returns the room's recent chat history for late joiners.
func (a *App) ListRecent(ctx context.Context, roomID uuid.UUID) ([]models.ChatMessage, error) {
	return a.repo.ListRecent(ctx, roomID, defaultRecentLimit)
}
