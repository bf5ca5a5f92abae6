package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/config"
	"github.com/automatehub/messaging/internal/auth"
	"github.com/automatehub/messaging/internal/cache"
	"github.com/automatehub/messaging/internal/events"
	"github.com/automatehub/messaging/internal/logger"
	"github.com/automatehub/messaging/internal/middleware"
	"github.com/automatehub/messaging/internal/repository"
	"github.com/automatehub/messaging/internal/routes"
	"github.com/automatehub/messaging/internal/service"
	"github.com/automatehub/messaging/internal/ws"
)

// Server holds the service dependencies and their lifecycle.
type Server struct {
	cfg      *config.Config
	app      *fiber.App
	repo     *repository.Mongo
	presence *cache.Presence
	relay    *events.Relay
	hub      *ws.Hub
	log      *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds the server and all dependencies. Errors if a required
// dependency fails.
func NewServer(cfg *config.Config, log *zap.SugaredLogger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	repo, err := repository.NewMongo(ctx, cfg, log)
	if err != nil {
		cancel()
		return nil, err
	}

	var presence *cache.Presence
	if cfg.PresenceEnabled() {
		presence, err = cache.NewPresence(ctx, cfg, log)
		if err != nil {
			cancel()
			return nil, err
		}
	}

	var relay *events.Relay
	if cfg.RelayEnabled() {
		relay = events.NewRelay(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, log)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)
	conversations := service.NewConversationService(repo, log)
	messages := service.NewMessageService(repo, log)

	hub := ws.NewHub(log)
	fanout := events.NewFanout(hub, relay, messages, log)
	// A nil *cache.Presence must stay a nil interface inside the gateway.
	var tracker ws.PresenceTracker
	if presence != nil {
		tracker = presence
	}
	gateway := ws.NewGateway(hub, conversations, messages, fanout, verifier, tracker, log)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	routes.Register(app, routes.Deps{
		Conversations: conversations,
		Messages:      messages,
		Fanout:        fanout,
		Gateway:       gateway,
		Presence:      presence,
		JWT:           middleware.JWTAuth(verifier),
		Log:           log,
	})

	return &Server{
		cfg:      cfg,
		app:      app,
		repo:     repo,
		presence: presence,
		relay:    relay,
		hub:      hub,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start launches the relay consumer and the HTTP server.
func (s *Server) Start() {
	if s.relay != nil {
		go s.relay.Run(s.ctx, s.hub)
	}
	go func() {
		s.log.Infow("starting messaging service", "port", s.cfg.AppPort)
		if err := s.app.Listen(":" + s.cfg.AppPort); err != nil {
			s.log.Fatalw("server exited unexpectedly", "err", err)
		}
	}()
}

// Shutdown stops background workers, disconnects clients, and drains the
// HTTP server.
func (s *Server) Shutdown() {
	s.log.Info("shutting down messaging service")
	s.cancel()

	if s.relay != nil {
		if err := s.relay.Close(); err != nil {
			s.log.Errorw("failed to close relay", "err", err)
		}
	}
	s.hub.Close()
	if s.presence != nil {
		if err := s.presence.Close(); err != nil {
			s.log.Errorw("failed to close redis", "err", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		s.log.Errorw("failed to shut down http server", "err", err)
	}
	if err := s.repo.Disconnect(ctx); err != nil {
		s.log.Errorw("failed to disconnect mongo", "err", err)
	}
	s.log.Info("messaging service stopped")
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(logger.Config{Development: cfg.Development()})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	server, err := NewServer(cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize server", "err", err)
	}
	server.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("received signal, starting graceful shutdown", "signal", sig.String())
	server.Shutdown()
}
