// Package events defines the live-channel event vocabulary, the room naming
// scheme, and the fan-out paths (in-process hub broadcast plus the optional
// Kafka cross-instance relay).
package events

// Server-to-client events.
const (
	NewMessage          = "new_message"
	MessageNotification = "message_notification"
	UserTyping          = "user_typing"
	UserStopTyping      = "user_stop_typing"
	MessagesRead        = "messages_read"
	ConversationDeleted = "conversation_deleted"
	MessageError        = "message_error"
)

// Client-to-server events.
const (
	JoinConversation  = "join_conversation"
	LeaveConversation = "leave_conversation"
	SendMessage       = "send_message"
	TypingStart       = "typing_start"
	TypingStop        = "typing_stop"
	MarkMessagesRead  = "mark_messages_read"
)

// UserRoom names a user's personal room, used for out-of-band notifications
// independent of which conversation rooms the client has joined.
func UserRoom(userID string) string { return "user:" + userID }

// ConversationRoom names the per-conversation fan-out room.
func ConversationRoom(convID string) string { return "conversation:" + convID }

// Broadcaster is the fan-out surface the hub provides. Emits are
// fire-and-forget; a slow consumer is dropped, never awaited.
type Broadcaster interface {
	Broadcast(room, event string, data any)
	BroadcastExcept(room, exceptConnID, event string, data any)
}
