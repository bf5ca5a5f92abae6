package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/apperror"
	"github.com/automatehub/messaging/internal/models"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

type MessageService struct {
	store Store
	log   *zap.SugaredLogger
}

func NewMessageService(store Store, log *zap.SugaredLogger) *MessageService {
	return &MessageService{store: store, log: log}
}

// List returns one page of a conversation's history in chronological order.
// Membership is checked against the conversation, independent of the
// messages query.
func (s *MessageService) List(ctx context.Context, callerID, convID string, page, limit int) ([]models.Message, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	if _, err := s.store.ConversationForParticipant(ctx, convID, callerID); err != nil {
		return nil, nil, err
	}

	msgs, total, err := s.store.MessagesByConversation(ctx, convID, page, limit)
	if err != nil {
		return nil, nil, err
	}
	// The store returns newest-first for efficient pagination; reverse so
	// the page itself reads oldest to newest.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	pagination := &models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
	return msgs, pagination, nil
}

// Send persists a message and updates the parent conversation's summary.
// Both the REST route and the live channel go through this path so the
// database and connected peers can never diverge.
func (s *MessageService) Send(ctx context.Context, callerID, convID, receiverID, content, messageType string) (*models.MessageWithProfiles, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", apperror.ErrValidation)
	}
	if receiverID == "" {
		return nil, fmt.Errorf("receiverId is required: %w", apperror.ErrValidation)
	}
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	conv, err := s.store.ConversationForParticipant(ctx, convID, callerID)
	if err != nil {
		return nil, err
	}
	// Participant closure: the receiver must be the caller's counterpart.
	if receiverID != conv.CounterpartOf(callerID) {
		return nil, fmt.Errorf("receiver is not a participant: %w", apperror.ErrValidation)
	}

	msg := &models.Message{
		ID:             primitive.NewObjectID().Hex(),
		ConversationID: convID,
		SenderID:       callerID,
		ReceiverID:     receiverID,
		Content:        content,
		MessageType:    messageType,
		IsRead:         false,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	summaries, err := s.store.UserSummaries(ctx, []string{msg.SenderID, msg.ReceiverID})
	if err != nil {
		// The message is durable; degrade to bare ids rather than failing.
		s.log.Warnw("profile enrichment failed", "message_id", msg.ID, "err", err)
		summaries = map[string]models.UserSummary{}
	}
	return &models.MessageWithProfiles{
		Message:  *msg,
		Sender:   summaryOr(summaries, msg.SenderID),
		Receiver: summaryOr(summaries, msg.ReceiverID),
	}, nil
}

// MarkRead flips every unread message addressed to the caller in the
// conversation, returning the number updated.
func (s *MessageService) MarkRead(ctx context.Context, callerID, convID string) (int64, error) {
	if _, err := s.store.ConversationForParticipant(ctx, convID, callerID); err != nil {
		return 0, err
	}
	return s.store.MarkConversationRead(ctx, convID, callerID, time.Now().UTC())
}

// UnreadCount recomputes the user's unread total across all conversations.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

func summaryOr(summaries map[string]models.UserSummary, id string) models.UserSummary {
	if u, ok := summaries[id]; ok {
		return u
	}
	return models.UserSummary{ID: id}
}
