package models

import "time"

// Conversation pairs exactly one client and one expert. Participants always
// holds the two ids {ClientID, ExpertID}; a conversation for a given pair is
// a singleton, enforced by a unique index on (client_id, expert_id).
type Conversation struct {
	ID            string    `bson:"_id" json:"id"`
	Participants  []string  `bson:"participants" json:"participants"`
	ClientID      string    `bson:"client_id" json:"client_id"`
	ExpertID      string    `bson:"expert_id" json:"expert_id"`
	LastMessage   string    `bson:"last_message" json:"last_message"`
	LastMessageAt time.Time `bson:"last_message_at" json:"last_message_at"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// CounterpartOf returns the other participant's id.
func (c *Conversation) CounterpartOf(userID string) string {
	if c.ClientID == userID {
		return c.ExpertID
	}
	return c.ClientID
}

// ConversationWithProfile is the enriched shape returned to callers: the bare
// conversation plus the counterpart's public profile summary. Keeping it a
// distinct type means a bare Conversation can never be mistaken for an
// enriched one.
type ConversationWithProfile struct {
	Conversation
	Counterpart UserSummary `json:"counterpart"`
}
