package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/automatehub/messaging/internal/apperror"
	"github.com/automatehub/messaging/internal/models"
)

func (m *Mongo) InsertConversation(ctx context.Context, conv *models.Conversation) error {
	_, err := m.conversations.InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("conversation pair exists: %w", apperror.ErrDuplicate)
	}
	return err
}

func (m *Mongo) ConversationByPair(ctx context.Context, clientID, expertID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.conversations.FindOne(ctx, bson.M{"client_id": clientID, "expert_id": expertID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationForParticipant fetches a conversation scoped by membership in a
// single query. A non-participant caller gets the same ErrNotFound as for an
// absent id; there is no fetch-then-check window.
func (m *Mongo) ConversationForParticipant(ctx context.Context, id, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := m.conversations.FindOne(ctx, bson.M{"_id": id, "participants": userID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationsForParticipant lists the user's conversations most recently
// active first. A zero before means "from the top"; otherwise only
// conversations strictly older than the cursor are returned.
func (m *Mongo) ConversationsForParticipant(ctx context.Context, userID string, before time.Time, limit int) ([]models.Conversation, error) {
	filter := bson.M{"participants": userID}
	if !before.IsZero() {
		filter["last_message_at"] = bson.M{"$lt": before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.conversations.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// DeleteConversationCascade removes the conversation and all of its messages
// in one transaction, returning the number of messages deleted.
func (m *Mongo) DeleteConversationCascade(ctx context.Context, id string) (int64, error) {
	var deleted int64
	err := m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := m.messages.DeleteMany(sc, bson.M{"conversation_id": id})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		if _, err := m.conversations.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
