package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/events"
	"github.com/automatehub/messaging/internal/service"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	fanout        *events.Fanout
	log           *zap.SugaredLogger
}

func NewConversationHandler(conversations *service.ConversationService, fanout *events.Fanout, log *zap.SugaredLogger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, fanout: fanout, log: log}
}

// List returns the caller's conversations, most recently active first.
// An optional before cursor (RFC3339) pages further back.
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return respondFailure(c, fiber.StatusBadRequest, "before must be RFC3339")
		}
		before = t
	}
	convs, err := h.conversations.List(c.Context(), callerID(c), before, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"conversations": convs})
}

// Start gets or creates the conversation between the caller and an expert.
func (h *ConversationHandler) Start(c *fiber.Ctx) error {
	var req struct {
		ExpertID string `json:"expertId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondFailure(c, fiber.StatusBadRequest, "invalid request body")
	}
	conv, err := h.conversations.StartOrGet(c.Context(), callerID(c), req.ExpertID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"conversation": conv})
}

// Get returns a single conversation the caller participates in.
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	conv, err := h.conversations.Get(c.Context(), callerID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"conversation": conv})
}

// Delete cascade-deletes a conversation and notifies the remaining
// participants and any live room observers.
func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	caller := callerID(c)
	conv, err := h.conversations.Delete(c.Context(), caller, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	h.fanout.ConversationDeleted(conv, caller)
	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": true})
}
