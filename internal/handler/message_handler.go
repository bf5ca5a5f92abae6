package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/events"
	"github.com/automatehub/messaging/internal/metrics"
	"github.com/automatehub/messaging/internal/service"
)

type MessageHandler struct {
	messages *service.MessageService
	fanout   *events.Fanout
	log      *zap.SugaredLogger
}

func NewMessageHandler(messages *service.MessageService, fanout *events.Fanout, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{messages: messages, fanout: fanout, log: log}
}

// List returns one chronological page of the conversation's history.
func (h *MessageHandler) List(c *fiber.Ctx) error {
	msgs, pagination, err := h.messages.List(
		c.Context(),
		callerID(c),
		c.Params("id"),
		c.QueryInt("page", 1),
		c.QueryInt("limit", 50),
	)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{
		"messages":   msgs,
		"pagination": pagination,
	})
}

// Send persists a message, then performs the same fan-out sequence as the
// live channel.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req struct {
		Content     string `json:"content"`
		ReceiverID  string `json:"receiverId"`
		MessageType string `json:"messageType"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondFailure(c, fiber.StatusBadRequest, "invalid request body")
	}
	msg, err := h.messages.Send(c.Context(), callerID(c), c.Params("id"), req.ReceiverID, req.Content, req.MessageType)
	if err != nil {
		return respondError(c, h.log, err)
	}
	metrics.MessagesSent.WithLabelValues("rest").Inc()
	h.fanout.MessageCreated(c.Context(), msg)
	return respondData(c, fiber.StatusCreated, fiber.Map{"message": msg})
}

// MarkRead flips every unread message addressed to the caller in the
// conversation.
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	updated, err := h.messages.MarkRead(c.Context(), callerID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"updated": updated})
}
