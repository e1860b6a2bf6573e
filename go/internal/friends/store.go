package friends

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/notifications"
	"github.com/watchly/watchly/go/internal/sqlutil"
)

// TxQueries are the operations available inside a request-resolution
// transaction. Resolution either commits all of them or none.
type TxQueries interface {
	DeleteRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error)
	InsertFriendship(ctx context.Context, a, b uuid.UUID) error
	InsertNotification(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string) error
}

// TxRunner runs a request resolution transactionally.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(q TxQueries) error) error
	NotifyNow(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string) error
}

// Store is the production TxRunner backed by Postgres.
type Store struct {
	db    *sql.DB
	notes *notifications.Repository
}

// NewStore creates a new friends store.
func NewStore(db *sql.DB, notes *notifications.Repository) *Store {
	return &Store{db: db, notes: notes}
}

type txQueries struct {
	*Queries
	notes *notifications.Repository
}

func (q *txQueries) InsertNotification(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string) error {
	return q.notes.Insert(ctx, q.Tx(), userID, typ, message)
}

// RunTx executes fn inside a transaction.
func (s *Store) RunTx(ctx context.Context, fn func(q TxQueries) error) error {
	return sqlutil.Run(ctx, s.db, NewQueries, func(q *Queries) error {
		return fn(&txQueries{Queries: q, notes: s.notes})
	})
}

// NotifyNow inserts a notification outside any transaction.
func (s *Store) NotifyNow(ctx context.Context, userID uuid.UUID, typ models.NotificationType, message string) error {
	return s.notes.Insert(ctx, s.db, userID, typ, message)
}
