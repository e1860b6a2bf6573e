package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/chat"
	"github.com/watchly/watchly/go/internal/friends"
	"github.com/watchly/watchly/go/internal/gateway"
	"github.com/watchly/watchly/go/internal/invites"
	"github.com/watchly/watchly/go/internal/notifications"
	"github.com/watchly/watchly/go/internal/outbox"
	"github.com/watchly/watchly/go/internal/rooms"
	"github.com/watchly/watchly/go/internal/signaling"
	"github.com/watchly/watchly/go/internal/users"
)

// Services holds the wired application graph.
type Services struct {
	Users         *users.Handler
	Rooms         *rooms.Handler
	Chat          *chat.Handler
	Friends       *friends.Handler
	Invites       *invites.Handler
	Notifications *notifications.Handler
	WebSocket     *gateway.WebSocketHandler

	ConnectionManager *gateway.ConnectionManager
	EventConsumer     *gateway.EventConsumer
	OutboxWorker      *outbox.Worker
	Publisher         *outbox.NATSPublisher
}

func setupServices(ctx context.Context, database *sql.DB, cfg *Config) (*Services, error) {
	// Repository layer → App layer → Handler layer

	// Users
	usersRepo := users.NewRepository(database)
	usersApp := users.NewApp(usersRepo)
	usersHandler := users.NewHandler(usersApp)

	// Outbox
	outboxRepo := outbox.NewRepository(database)

	// Rooms
	roomsRepo := rooms.NewRepository(database)
	roomsApp := rooms.NewApp(database, roomsRepo, outboxRepo, usersApp)
	roomsHandler := rooms.NewHandler(roomsApp)

	// Notifications storage is shared by friends and invites
	notesRepo := notifications.NewRepository(database)

	// Friends
	friendsRepo := friends.NewRepository(database)
	friendsStore := friends.NewStore(database, notesRepo)
	friendsApp := friends.NewApp(friendsRepo, friendsStore, usersApp)
	friendsHandler := friends.NewHandler(friendsApp)

	// Invites
	invitesRepo := invites.NewRepository(database)
	invitesStore := invites.NewStore(database, notesRepo)
	invitesApp := invites.NewApp(invitesRepo, invitesStore, roomsApp, usersApp)
	invitesHandler := invites.NewHandler(invitesApp)

	// Unified notification feed
	notesApp := notifications.NewApp(notesRepo, friendsRepo, invitesRepo)
	notesHandler := notifications.NewHandler(notesApp)

	// Chat
	chatRepo := chat.NewRepository(database)
	chatApp := chat.NewApp(database, chatRepo, outboxRepo, roomsRepo, usersApp)
	chatHandler := chat.NewHandler(chatApp)

	// Gateway
	connConfig := gateway.DefaultConnectionConfig()
	if cfg.Gateway.PingIntervalSec > 0 {
		connConfig.PingInterval = time.Duration(cfg.Gateway.PingIntervalSec) * time.Second
	}
	if cfg.Gateway.ReadTimeoutSec > 0 {
		connConfig.ReadTimeout = time.Duration(cfg.Gateway.ReadTimeoutSec) * time.Second
	}
	connectionManager := gateway.NewConnectionManager(connConfig)
	stateManager := gateway.NewRoomStateManager()

	// Voice signaling rides on the gateway for delivery
	signalRepo := signaling.NewRepository(database)
	relay := signaling.NewRelay(signalRepo, roomsApp, connectionManager)

	router := gateway.NewMessageRouter(roomsApp, chatApp, relay)
	connectionManager.SetClientMessageHandler(router)

	wsHandler := gateway.NewWebSocketHandler(connectionManager, stateManager, roomsRepo, relay, roomsApp)

	services := &Services{
		Users:             usersHandler,
		Rooms:             roomsHandler,
		Chat:              chatHandler,
		Friends:           friendsHandler,
		Invites:           invitesHandler,
		Notifications:     notesHandler,
		WebSocket:         wsHandler,
		ConnectionManager: connectionManager,
	}

	if err := setupEventPipeline(ctx, services, database, outboxRepo, connectionManager, stateManager, cfg); err != nil {
		return nil, err
	}

	return services, nil
}

// setupEventPipeline wires the outbox worker and the JetStream fan-out. With
// NATS disabled the worker drains into a mock publisher so outbox rows still
// get marked sent during local development.
func setupEventPipeline(ctx context.Context, services *Services, database *sql.DB, outboxRepo *outbox.Repository, cm *gateway.ConnectionManager, sm *gateway.RoomStateManager, cfg *Config) error {
	workerConfig := outbox.DefaultConfig()
	if cfg.Outbox.PollIntervalMs > 0 {
		workerConfig.PollInterval = time.Duration(cfg.Outbox.PollIntervalMs) * time.Millisecond
	}
	if cfg.Outbox.BatchSize > 0 {
		workerConfig.BatchSize = int32(cfg.Outbox.BatchSize)
	}
	if cfg.Outbox.MaxRetries > 0 {
		workerConfig.MaxRetries = cfg.Outbox.MaxRetries
	}

	if !cfg.NATS.Enabled {
		log.Warn().Msg("NATS disabled, room events will not reach other instances")
		services.OutboxWorker = outbox.NewWorker(database, outboxRepo, &outbox.MockPublisher{}, workerConfig)
		return nil
	}

	publisher, err := outbox.NewNATSPublisher(ctx, cfg.NATS.URL, cfg.NATS.StreamName, cfg.NATS.SubjectPrefix)
	if err != nil {
		return fmt.Errorf("create NATS publisher: %w", err)
	}
	services.Publisher = publisher
	services.OutboxWorker = outbox.NewWorker(database, outboxRepo, publisher, workerConfig)

	consumerConfig := gateway.DefaultJetStreamConsumerConfig()
	consumerConfig.URL = cfg.NATS.URL
	consumerConfig.StreamName = cfg.NATS.StreamName
	consumerConfig.SubjectFilter = cfg.NATS.SubjectPrefix + ".>"

	consumer, err := gateway.NewEventConsumer(cm, sm, consumerConfig)
	if err != nil {
		return fmt.Errorf("create event consumer: %w", err)
	}
	services.EventConsumer = consumer

	return nil
}
