package models

import "time"

// MessageTypeText is the only message type currently exercised; the field is
// a free-form tag so richer payload kinds can be added without a migration.
const MessageTypeText = "text"

// Message is an immutable-once-created unit of conversation content. Only
// IsRead/ReadAt ever change after insert; CreatedAt is the sole ordering key
// for history reconstruction.
type Message struct {
	ID             string     `bson:"_id" json:"id"`
	ConversationID string     `bson:"conversation_id" json:"conversation_id"`
	SenderID       string     `bson:"sender_id" json:"sender_id"`
	ReceiverID     string     `bson:"receiver_id" json:"receiver_id"`
	Content        string     `bson:"content" json:"content"`
	MessageType    string     `bson:"message_type" json:"message_type"`
	IsRead         bool       `bson:"is_read" json:"is_read"`
	ReadAt         *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
}

// MessageWithProfiles attaches sender and receiver profile summaries for
// responses and live events.
type MessageWithProfiles struct {
	Message
	Sender   UserSummary `json:"sender"`
	Receiver UserSummary `json:"receiver"`
}

// Pagination describes a page of message history. Total is the full count
// for the conversation so clients can compute the number of pages.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}
