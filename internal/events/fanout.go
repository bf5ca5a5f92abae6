package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/metrics"
	"github.com/automatehub/messaging/internal/models"
)

// UnreadCounter recomputes a user's unread total. Satisfied by the message
// service.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// Fanout performs the post-persist emission sequence shared by the REST
// handlers and the live channel gateway. Both transports call the same
// methods so connected peers see identical payloads regardless of how a
// write arrived.
type Fanout struct {
	hub    Broadcaster
	relay  *Relay // nil when the Kafka relay is disabled
	unread UnreadCounter
	log    *zap.SugaredLogger
}

func NewFanout(hub Broadcaster, relay *Relay, unread UnreadCounter, log *zap.SugaredLogger) *Fanout {
	return &Fanout{hub: hub, relay: relay, unread: unread, log: log}
}

type notificationPayload struct {
	Message     *models.MessageWithProfiles `json:"message"`
	UnreadCount int64                       `json:"unread_count"`
}

// MessageCreated emits the dual notification for a freshly persisted
// message: the full message to the conversation room for anyone viewing the
// thread, and a badge notification with a recomputed unread count to the
// receiver's personal room.
func (f *Fanout) MessageCreated(ctx context.Context, msg *models.MessageWithProfiles) {
	convRoom := ConversationRoom(msg.ConversationID)
	f.emit(convRoom, NewMessage, msg)

	count, err := f.unread.UnreadCount(ctx, msg.ReceiverID)
	if err != nil {
		f.log.Errorw("unread count failed", "receiver_id", msg.ReceiverID, "err", err)
		count = 0
	}
	f.emit(UserRoom(msg.ReceiverID), MessageNotification, notificationPayload{
		Message:     msg,
		UnreadCount: count,
	})
	metrics.WSEvents.WithLabelValues(NewMessage).Inc()
}

type readPayload struct {
	ConversationID string `json:"conversation_id"`
	ReadBy         string `json:"read_by"`
}

// MessagesRead tells the conversation room that readBy has caught up.
// exceptConnID excludes the connection that triggered the update; empty means
// broadcast to everyone (the REST path has no originating connection).
func (f *Fanout) MessagesRead(convID, readBy, exceptConnID string) {
	payload := readPayload{ConversationID: convID, ReadBy: readBy}
	room := ConversationRoom(convID)
	if exceptConnID == "" {
		f.emit(room, MessagesRead, payload)
	} else {
		f.hub.BroadcastExcept(room, exceptConnID, MessagesRead, payload)
		f.publish(room, MessagesRead, payload)
	}
	metrics.WSEvents.WithLabelValues(MessagesRead).Inc()
}

type typingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
}

// Typing relays typing state to the conversation room, excluding the typist.
// Deliberately process-local: typing is ephemeral and not worth a relay hop.
func (f *Fanout) Typing(convID, userID, exceptConnID string, stopped bool) {
	event := UserTyping
	if stopped {
		event = UserStopTyping
	}
	f.hub.BroadcastExcept(ConversationRoom(convID), exceptConnID, event, typingPayload{
		ConversationID: convID,
		UserID:         userID,
	})
	metrics.WSEvents.WithLabelValues(event).Inc()
}

type deletedPayload struct {
	ConversationID string `json:"conversation_id"`
	DeletedBy      string `json:"deleted_by"`
}

// ConversationDeleted notifies every other participant's personal room and
// the conversation room itself, which covers peers currently viewing the
// thread.
func (f *Fanout) ConversationDeleted(conv *models.Conversation, deletedBy string) {
	payload := deletedPayload{ConversationID: conv.ID, DeletedBy: deletedBy}
	for _, p := range conv.Participants {
		if p == deletedBy {
			continue
		}
		f.emit(UserRoom(p), ConversationDeleted, payload)
	}
	f.emit(ConversationRoom(conv.ID), ConversationDeleted, payload)
	metrics.WSEvents.WithLabelValues(ConversationDeleted).Inc()
}

// emit broadcasts locally and mirrors the event to peer instances.
func (f *Fanout) emit(room, event string, data any) {
	f.hub.Broadcast(room, event, data)
	f.publish(room, event, data)
}

func (f *Fanout) publish(room, event string, data any) {
	if f.relay == nil {
		return
	}
	if err := f.relay.Publish(room, event, data); err != nil {
		f.log.Errorw("relay publish failed", "room", room, "event", event, "err", err)
	}
}
