package models

// UserSummary is the public profile slice used to enrich conversations and
// messages. The users collection is owned by the identity service; we only
// read these fields.
type UserSummary struct {
	ID     string `bson:"_id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Title  string `bson:"title" json:"title"`
	Avatar string `bson:"avatar" json:"avatar"`
}

// ExpertProfile maps a marketplace expert profile to its owning user. Only
// consulted when starting a conversation.
type ExpertProfile struct {
	ID     string `bson:"_id" json:"id"`
	UserID string `bson:"user_id" json:"user_id"`
	Name   string `bson:"name" json:"name"`
	Title  string `bson:"title" json:"title"`
	Avatar string `bson:"avatar" json:"avatar"`
}
