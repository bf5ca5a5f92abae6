package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/cache"
)

type UserHandler struct {
	presence *cache.Presence
	log      *zap.SugaredLogger
}

func NewUserHandler(presence *cache.Presence, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{presence: presence, log: log}
}

// Online lists the user ids currently holding at least one live connection.
func (h *UserHandler) Online(c *fiber.Ctx) error {
	users, err := h.presence.OnlineUsers(c.Context())
	if err != nil {
		return respondError(c, h.log, err)
	}
	if users == nil {
		users = []string{}
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"users": users})
}
