package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/cache"
	"github.com/automatehub/messaging/internal/events"
	handlers "github.com/automatehub/messaging/internal/handler"
	"github.com/automatehub/messaging/internal/metrics"
	"github.com/automatehub/messaging/internal/middleware"
	"github.com/automatehub/messaging/internal/service"
	"github.com/automatehub/messaging/internal/ws"
)

// Deps carries everything the route table needs. Presence and Gateway may be
// nil in tests that exercise the REST surface alone.
type Deps struct {
	Conversations *service.ConversationService
	Messages      *service.MessageService
	Fanout        *events.Fanout
	Gateway       *ws.Gateway
	Presence      *cache.Presence
	JWT           fiber.Handler
	Log           *zap.SugaredLogger
}

// Register wires the REST surface, the live channel endpoint, and the
// operational endpoints onto app.
func Register(app *fiber.App, d Deps) {
	app.Use(middleware.Recovery(d.Log))
	app.Use(middleware.Logging(d.Log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api/v1")
	api.Use(d.JWT)

	conversations := api.Group("/conversations")
	convHandler := handlers.NewConversationHandler(d.Conversations, d.Fanout, d.Log)
	msgHandler := handlers.NewMessageHandler(d.Messages, d.Fanout, d.Log)
	conversations.Get("/", convHandler.List)
	conversations.Post("/start", convHandler.Start)
	conversations.Get("/:id", convHandler.Get)
	conversations.Delete("/:id", convHandler.Delete)
	conversations.Get("/:id/messages", msgHandler.List)
	conversations.Post("/:id/messages", msgHandler.Send)
	conversations.Put("/:id/messages/read", msgHandler.MarkRead)

	if d.Presence != nil {
		users := api.Group("/users")
		userHandler := handlers.NewUserHandler(d.Presence, d.Log)
		users.Get("/online", userHandler.Online)
	}

	if d.Gateway != nil {
		app.Get("/ws", d.Gateway.Handler())
	}
}
