package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/automatehub/messaging/internal/models"
)

// SaveMessage inserts the message and patches the parent conversation's
// denormalized summary in a single transaction, so observers never see a
// message whose conversation still advertises the previous one as latest.
func (m *Mongo) SaveMessage(ctx context.Context, msg *models.Message) error {
	return m.withTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := m.messages.InsertOne(sc, msg); err != nil {
			return err
		}
		_, err := m.conversations.UpdateOne(sc,
			bson.M{"_id": msg.ConversationID},
			bson.M{"$set": bson.M{
				"last_message":    msg.Content,
				"last_message_at": msg.CreatedAt,
			}},
		)
		return err
	})
}

// MessagesByConversation returns one page of history, newest first, plus the
// full message count for the conversation. The caller reverses the page so
// it reads chronologically.
func (m *Mongo) MessagesByConversation(ctx context.Context, convID string, page, limit int) ([]models.Message, int64, error) {
	filter := bson.M{"conversation_id": convID}

	total, err := m.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := m.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

// MarkConversationRead flips every unread message addressed to receiverID in
// the conversation, stamping read_at. Returns the number of messages updated.
func (m *Mongo) MarkConversationRead(ctx context.Context, convID, receiverID string, at time.Time) (int64, error) {
	res, err := m.messages.UpdateMany(ctx,
		bson.M{
			"conversation_id": convID,
			"receiver_id":     receiverID,
			"is_read":         false,
		},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountUnread recomputes the receiver's unread total across all
// conversations. Backed by the (receiver_id, is_read) index.
func (m *Mongo) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	return m.messages.CountDocuments(ctx, bson.M{"receiver_id": receiverID, "is_read": false})
}
