package service

import (
	"context"
	"time"

	"github.com/automatehub/messaging/internal/models"
)

// Store is the persistence surface the services depend on. Implemented by
// repository.Mongo in production and by the in-memory store in tests.
type Store interface {
	InsertConversation(ctx context.Context, conv *models.Conversation) error
	ConversationByPair(ctx context.Context, clientID, expertID string) (*models.Conversation, error)
	ConversationForParticipant(ctx context.Context, id, userID string) (*models.Conversation, error)
	ConversationsForParticipant(ctx context.Context, userID string, before time.Time, limit int) ([]models.Conversation, error)
	DeleteConversationCascade(ctx context.Context, id string) (int64, error)

	SaveMessage(ctx context.Context, msg *models.Message) error
	MessagesByConversation(ctx context.Context, convID string, page, limit int) ([]models.Message, int64, error)
	MarkConversationRead(ctx context.Context, convID, receiverID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)

	ExpertProfileByID(ctx context.Context, id string) (*models.ExpertProfile, error)
	UserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)
}
