package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/watchly/watchly/go/internal/events"
	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/outbox"
	"github.com/watchly/watchly/go/internal/sqlutil"
)

var (
	// ErrNotHost is returned when a non-host attempts a playback write.
	ErrNotHost = errors.New("only the host can control playback")

	// ErrWrongPassword is returned on a failed room password check.
	ErrWrongPassword = errors.New("wrong room password")
)

// RoomsRepository defines what the app layer needs from the repository
type RoomsRepository interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetPasswordHash(ctx context.Context, id uuid.UUID) (*string, error)
	GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error)
	ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error)
	AddQueueEntry(ctx context.Context, roomID, addedBy uuid.UUID, videoURL string) (*models.QueueEntry, error)
	ListQueue(ctx context.Context, roomID uuid.UUID) ([]models.QueueEntry, error)
}

// UserLookup resolves usernames for event payloads.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// App handles rooms business logic. Mutations that must be observed by other
// participants commit an outbox event in the same transaction.
type App struct {
	db         *sql.DB
	repo       RoomsRepository
	outboxRepo *outbox.Repository
	userLookup UserLookup
}

// NewApp creates a new rooms App
func NewApp(db *sql.DB, repo RoomsRepository, outboxRepo *outbox.Repository, userLookup UserLookup) *App {
	return &App{
		db:         db,
		repo:       repo,
		outboxRepo: outboxRepo,
		userLookup: userLookup,
	}
}

// CreateRoom creates a room with the creator as host.
func (a *App) CreateRoom(ctx context.Context, createdBy uuid.UUID, req CreateRoomRequest) (*models.Room, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("validation failed: room name is required")
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		return nil, fmt.Errorf("validation failed: video url is required")
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash room password: %w", err)
		}
		s := string(hash)
		passwordHash = &s
	}

	var room *models.Room
	err := sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		var err error
		room, err = q.CreateRoom(ctx, req, createdBy, passwordHash)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("room_id", room.ID.String()).
		Str("created_by", createdBy.String()).
		Msg("created room")
	return room, nil
}

// GetRoom retrieves a room by ID
func (a *App) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return a.repo.GetRoom(ctx, id)
}

// JoinRoom verifies the password if set and adds the user as a viewer.
func (a *App) JoinRoom(ctx context.Context, roomID, userID uuid.UUID, req JoinRoomRequest) (*models.Room, error) {
	room, err := a.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	hash, err := a.repo.GetPasswordHash(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		if err := bcrypt.CompareHashAndPassword([]byte(*hash), []byte(req.Password)); err != nil {
			return nil, ErrWrongPassword
		}
	}

	username := a.usernameFor(ctx, userID)
	err = sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		if err := q.AddMember(ctx, roomID, userID); err != nil {
			return err
		}
		return a.outboxRepo.InsertEvent(ctx, q.Tx(), roomID, events.TypeMemberJoined, events.MemberJoinedPayload{
			UserID:   userID.String(),
			Username: username,
			IsHost:   false,
			JoinedAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// LeaveRoom removes the member. When the host leaves, the earliest-joined
// remaining member inherits the host flag so the room keeps an authoritative
// writer.
func (a *App) LeaveRoom(ctx context.Context, roomID, userID uuid.UUID) error {
	return sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		wasHost, err := q.RemoveMember(ctx, roomID, userID)
		if err != nil {
			return err
		}

		if wasHost {
			newHost, err := q.PromoteOldestMember(ctx, roomID)
			if err != nil && !errors.Is(err, ErrNotMember) {
				return err
			}
			if err == nil {
				log.Info().
					Str("room_id", roomID.String()).
					Str("new_host", newHost.String()).
					Msg("host left, promoted new host")
			}
		}

		return a.outboxRepo.InsertEvent(ctx, q.Tx(), roomID, events.TypeMemberLeft, events.MemberLeftPayload{
			UserID: userID.String(),
			LeftAt: time.Now(),
		})
	})
}

// UpdatePlayback writes the shared playback state. Host only: the single
// writer invariant is enforced here, not just by disabled controls.
func (a *App) UpdatePlayback(ctx context.Context, roomID, userID uuid.UUID, req UpdatePlaybackRequest) (*models.Room, error) {
	if err := a.requireHost(ctx, roomID, userID); err != nil {
		return nil, err
	}

	var room *models.Room
	err := sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		var err error
		room, err = q.UpdatePlayback(ctx, roomID, req)
		if err != nil {
			return err
		}
		return a.outboxRepo.InsertEvent(ctx, q.Tx(), roomID, events.TypePlaybackUpdated, events.PlaybackUpdatedPayload{
			CurrentTime:   room.CurrentTime,
			IsPlaying:     room.IsPlaying,
			SchemaVersion: room.SchemaVersion,
			UpdatedBy:     userID.String(),
			UpdatedAt:     room.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// ChangeVideo switches the room to a new video. Host only.
func (a *App) ChangeVideo(ctx context.Context, roomID, userID uuid.UUID, req ChangeVideoRequest) (*models.Room, error) {
	if strings.TrimSpace(req.VideoURL) == "" {
		return nil, fmt.Errorf("validation failed: video url is required")
	}
	if err := a.requireHost(ctx, roomID, userID); err != nil {
		return nil, err
	}

	var room *models.Room
	err := sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		var err error
		room, err = q.SetVideo(ctx, roomID, req.VideoURL, false)
		if err != nil {
			return err
		}
		return a.outboxRepo.InsertEvent(ctx, q.Tx(), roomID, events.TypeVideoChanged, events.VideoChangedPayload{
			VideoURL:  room.VideoURL,
			ChangedBy: userID.String(),
			ChangedAt: room.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// AddToQueue appends a video to the room queue. Any member may queue.
func (a *App) AddToQueue(ctx context.Context, roomID, userID uuid.UUID, req AddQueueRequest) (*models.QueueEntry, error) {
	if strings.TrimSpace(req.VideoURL) == "" {
		return nil, fmt.Errorf("validation failed: video url is required")
	}
	if _, err := a.repo.GetMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return a.repo.AddQueueEntry(ctx, roomID, userID, req.VideoURL)
}

// ListQueue returns the room's queued videos.
func (a *App) ListQueue(ctx context.Context, roomID uuid.UUID) ([]models.QueueEntry, error) {
	return a.repo.ListQueue(ctx, roomID)
}

// ListMembers returns the room's members.
func (a *App) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	return a.repo.ListMembers(ctx, roomID)
}

// AdvanceQueue pops the next queued video and makes it current, autoplaying
// from zero. Host only; this is the end-of-media hook, so double delivery of
// the player's ended event must not double-advance (the reconciler guards
// that client-side, and the queue pop is transactional here).
func (a *App) AdvanceQueue(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error) {
	if err := a.requireHost(ctx, roomID, userID); err != nil {
		return nil, err
	}

	var room *models.Room
	err := sqlutil.Run(ctx, a.db, NewQueries, func(q *Queries) error {
		next, err := q.PopQueueHead(ctx, roomID)
		if err != nil {
			return err
		}

		room, err = q.SetVideo(ctx, roomID, next.VideoURL, true)
		if err != nil {
			return err
		}

		remaining, err := q.CountQueue(ctx, roomID)
		if err != nil {
			return err
		}

		return a.outboxRepo.InsertEvent(ctx, q.Tx(), roomID, events.TypeQueueAdvanced, events.QueueAdvancedPayload{
			VideoURL:       room.VideoURL,
			QueueRemaining: remaining,
			AdvancedAt:     room.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("room_id", roomID.String()).
		Str("video_url", room.VideoURL).
		Msg("advanced room queue")
	return room, nil
}

// PlaybackSnapshot returns the room's shared playback state for reconnecting
// clients.
func (a *App) PlaybackSnapshot(ctx context.Context, roomID uuid.UUID) (*events.PlaybackUpdatedPayload, error) {
	room, err := a.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &events.PlaybackUpdatedPayload{
		CurrentTime:   room.CurrentTime,
		IsPlaying:     room.IsPlaying,
		SchemaVersion: room.SchemaVersion,
		UpdatedAt:     room.UpdatedAt,
	}, nil
}

// IsHost reports whether userID is the room's host.
func (a *App) IsHost(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	member, err := a.repo.GetMember(ctx, roomID, userID)
	if err != nil {
		return false, err
	}
	return member.IsHost, nil
}

func (a *App) requireHost(ctx context.Context, roomID, userID uuid.UUID) error {
	member, err := a.repo.GetMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !member.IsHost {
		return ErrNotHost
	}
	return nil
}

func (a *App) usernameFor(ctx context.Context, userID uuid.UUID) string {
	if a.userLookup == nil {
		return ""
	}
	user, err := a.userLookup.GetUser(ctx, userID)
	if err != nil {
		return ""
	}
	return user.Username
}
