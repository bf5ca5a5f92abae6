package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/auth"
	"github.com/automatehub/messaging/internal/events"
	"github.com/automatehub/messaging/internal/metrics"
	"github.com/automatehub/messaging/internal/service"
)

const handlerTimeout = 5 * time.Second

// PresenceTracker records user online state. Satisfied by the Redis presence
// store; nil disables tracking.
type PresenceTracker interface {
	Connected(ctx context.Context, userID, connID string) error
	Disconnected(ctx context.Context, userID, connID string, last bool) error
}

// Gateway authenticates live connections and dispatches their events. Every
// state change goes through the same services as the REST routes, so the two
// paths perform an identical persist-then-fan-out sequence.
type Gateway struct {
	hub           *Hub
	conversations *service.ConversationService
	messages      *service.MessageService
	fanout        *events.Fanout
	verifier      *auth.Verifier
	presence      PresenceTracker
	log           *zap.SugaredLogger
}

func NewGateway(
	hub *Hub,
	conversations *service.ConversationService,
	messages *service.MessageService,
	fanout *events.Fanout,
	verifier *auth.Verifier,
	presence PresenceTracker,
	log *zap.SugaredLogger,
) *Gateway {
	return &Gateway{
		hub:           hub,
		conversations: conversations,
		messages:      messages,
		fanout:        fanout,
		verifier:      verifier,
		presence:      presence,
		log:           log,
	}
}

// Handler returns the fiber handler serving the live channel endpoint.
func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(g.serve)
}

func (g *Gateway) serve(conn *websocket.Conn) {
	claims, err := g.verifier.Verify(conn.Query("token"))
	if err != nil {
		if frame, merr := marshalEnvelope(events.MessageError, errorPayload{Message: "authentication failed"}); merr == nil {
			_ = conn.WriteMessage(websocket.TextMessage, frame)
		}
		_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	client := NewClient(uuid.NewString(), claims.UserID, conn)
	g.hub.Register(client)
	metrics.WSConnections.Inc()
	g.log.Infow("ws connected", "user_id", client.UserID, "conn_id", client.ID)

	if g.presence != nil {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		if err := g.presence.Connected(ctx, client.UserID, client.ID); err != nil {
			g.log.Warnw("presence mark online failed", "user_id", client.UserID, "err", err)
		}
		cancel()
	}

	go client.WritePump()
	g.readLoop(client)
}

func (g *Gateway) readLoop(c *Client) {
	defer func() {
		remaining := g.hub.Unregister(c)
		metrics.WSConnections.Dec()
		if g.presence != nil {
			ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
			if err := g.presence.Disconnected(ctx, c.UserID, c.ID, remaining == 0); err != nil {
				g.log.Warnw("presence mark offline failed", "user_id", c.UserID, "err", err)
			}
			cancel()
		}
		_ = c.Conn.Close()
		g.log.Infow("ws disconnected", "user_id", c.UserID, "conn_id", c.ID)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.sendError(c, "malformed event")
			continue
		}
		g.dispatch(c, env)
	}
}

type conversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

type sendMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
}

func (g *Gateway) dispatch(c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch env.Event {
	case events.JoinConversation:
		var p conversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			g.sendError(c, "conversation_id required")
			return
		}
		// Membership is verified before admission; an authenticated
		// non-participant never observes room traffic.
		if _, err := g.conversations.Get(ctx, c.UserID, p.ConversationID); err != nil {
			g.sendError(c, "conversation not found")
			return
		}
		g.hub.Join(events.ConversationRoom(p.ConversationID), c)

	case events.LeaveConversation:
		var p conversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			return
		}
		g.hub.Leave(events.ConversationRoom(p.ConversationID), c)

	case events.SendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.sendError(c, "malformed send_message payload")
			return
		}
		msg, err := g.messages.Send(ctx, c.UserID, p.ConversationID, p.ReceiverID, p.Content, p.MessageType)
		if err != nil {
			// Nothing was persisted, so nothing is broadcast; only the
			// originator learns of the failure.
			g.log.Warnw("ws send failed", "user_id", c.UserID, "conversation_id", p.ConversationID, "err", err)
			g.sendError(c, "failed to send message")
			return
		}
		metrics.MessagesSent.WithLabelValues("ws").Inc()
		g.fanout.MessageCreated(ctx, msg)

	case events.TypingStart, events.TypingStop:
		var p conversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			return
		}
		g.fanout.Typing(p.ConversationID, c.UserID, c.ID, env.Event == events.TypingStop)

	case events.MarkMessagesRead:
		var p conversationPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			g.sendError(c, "conversation_id required")
			return
		}
		if _, err := g.messages.MarkRead(ctx, c.UserID, p.ConversationID); err != nil {
			g.sendError(c, "failed to mark messages read")
			return
		}
		g.fanout.MessagesRead(p.ConversationID, c.UserID, c.ID)

	default:
		g.sendError(c, "unknown event")
	}
}

type errorPayload struct {
	Message string `json:"message"`
}

// sendError delivers a message_error to the originating connection only.
func (g *Gateway) sendError(c *Client, message string) {
	frame, err := marshalEnvelope(events.MessageError, errorPayload{Message: message})
	if err != nil {
		return
	}
	c.Enqueue(frame)
}
