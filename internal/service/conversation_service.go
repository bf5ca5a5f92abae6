package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/internal/apperror"
	"github.com/automatehub/messaging/internal/models"
)

const (
	defaultConversationLimit = 20
	maxConversationLimit     = 100
)

type ConversationService struct {
	store Store
	log   *zap.SugaredLogger
}

func NewConversationService(store Store, log *zap.SugaredLogger) *ConversationService {
	return &ConversationService{store: store, log: log}
}

// List returns the caller's conversations, counterpart profile attached,
// most recently active first. A non-zero before acts as a recency cursor.
func (s *ConversationService) List(ctx context.Context, callerID string, before time.Time, limit int) ([]models.ConversationWithProfile, error) {
	if limit <= 0 {
		limit = defaultConversationLimit
	}
	if limit > maxConversationLimit {
		limit = maxConversationLimit
	}
	convs, err := s.store.ConversationsForParticipant(ctx, callerID, before, limit)
	if err != nil {
		return nil, err
	}
	return s.attachCounterparts(ctx, callerID, convs)
}

// StartOrGet resolves the expert profile to its owning user and returns the
// existing conversation for the pair, creating it on first contact. This is
// the sole creation path; the operation is idempotent, with the unique
// (client_id, expert_id) index settling concurrent creation races.
func (s *ConversationService) StartOrGet(ctx context.Context, callerID, expertProfileID string) (*models.ConversationWithProfile, error) {
	if expertProfileID == "" {
		return nil, fmt.Errorf("expertId is required: %w", apperror.ErrValidation)
	}
	profile, err := s.store.ExpertProfileByID(ctx, expertProfileID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("expert profile not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}
	if profile.UserID == callerID {
		return nil, fmt.Errorf("cannot start a conversation with yourself: %w", apperror.ErrValidation)
	}

	conv, err := s.store.ConversationByPair(ctx, callerID, profile.UserID)
	switch {
	case err == nil:
		return s.attachCounterpart(ctx, callerID, conv)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	conv = &models.Conversation{
		ID:            primitive.NewObjectID().Hex(),
		Participants:  []string{callerID, profile.UserID},
		ClientID:      callerID,
		ExpertID:      profile.UserID,
		LastMessage:   "",
		LastMessageAt: now,
		CreatedAt:     now,
	}
	if err := s.store.InsertConversation(ctx, conv); err != nil {
		if errors.Is(err, apperror.ErrDuplicate) {
			// Lost the race; the winner's record is the singleton.
			conv, err = s.store.ConversationByPair(ctx, callerID, profile.UserID)
			if err != nil {
				return nil, err
			}
			return s.attachCounterpart(ctx, callerID, conv)
		}
		return nil, err
	}
	s.log.Infow("conversation created", "conversation_id", conv.ID, "client_id", conv.ClientID, "expert_id", conv.ExpertID)
	return s.attachCounterpart(ctx, callerID, conv)
}

// Get fetches a single conversation scoped by membership.
func (s *ConversationService) Get(ctx context.Context, callerID, id string) (*models.ConversationWithProfile, error) {
	conv, err := s.store.ConversationForParticipant(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	return s.attachCounterpart(ctx, callerID, conv)
}

// Delete removes the conversation and all of its messages. The deleted
// conversation is returned so the caller can fan out the deletion event to
// the remaining participants.
func (s *ConversationService) Delete(ctx context.Context, callerID, id string) (*models.Conversation, error) {
	conv, err := s.store.ConversationForParticipant(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	deleted, err := s.store.DeleteConversationCascade(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Infow("conversation deleted", "conversation_id", id, "deleted_by", callerID, "messages_deleted", deleted)
	return conv, nil
}

func (s *ConversationService) attachCounterpart(ctx context.Context, callerID string, conv *models.Conversation) (*models.ConversationWithProfile, error) {
	enriched, err := s.attachCounterparts(ctx, callerID, []models.Conversation{*conv})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

func (s *ConversationService) attachCounterparts(ctx context.Context, callerID string, convs []models.Conversation) ([]models.ConversationWithProfile, error) {
	ids := make([]string, 0, len(convs))
	for i := range convs {
		ids = append(ids, convs[i].CounterpartOf(callerID))
	}
	summaries, err := s.store.UserSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationWithProfile, 0, len(convs))
	for i := range convs {
		counterpartID := convs[i].CounterpartOf(callerID)
		summary, ok := summaries[counterpartID]
		if !ok {
			// Profile gone or never synced; keep the id so the client can
			// still address the counterpart.
			summary = models.UserSummary{ID: counterpartID}
		}
		out = append(out, models.ConversationWithProfile{
			Conversation: convs[i],
			Counterpart:  summary,
		})
	}
	return out, nil
}
