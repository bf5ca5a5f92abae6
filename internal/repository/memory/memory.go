// Package memory provides an in-process implementation of the service store,
// used by tests and local development without a MongoDB instance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/automatehub/messaging/internal/apperror"
	"github.com/automatehub/messaging/internal/models"
)

type Store struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
	messages      map[string]*models.Message
	experts       map[string]*models.ExpertProfile
	users         map[string]models.UserSummary
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string]*models.Message),
		experts:       make(map[string]*models.ExpertProfile),
		users:         make(map[string]models.UserSummary),
	}
}

// AddUser seeds a user profile summary.
func (s *Store) AddUser(u models.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddExpert seeds an expert profile.
func (s *Store) AddExpert(p models.ExpertProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.experts[p.ID] = &cp
}

func (s *Store) InsertConversation(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conversations {
		if c.ClientID == conv.ClientID && c.ExpertID == conv.ExpertID {
			return apperror.ErrDuplicate
		}
	}
	cp := *conv
	s.conversations[conv.ID] = &cp
	return nil
}

func (s *Store) ConversationByPair(_ context.Context, clientID, expertID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conversations {
		if c.ClientID == clientID && c.ExpertID == expertID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.ErrNotFound
}

func (s *Store) ConversationForParticipant(_ context.Context, id, userID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok || !c.HasParticipant(userID) {
		return nil, apperror.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ConversationsForParticipant(_ context.Context, userID string, before time.Time, limit int) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Conversation
	for _, c := range s.conversations {
		if !c.HasParticipant(userID) {
			continue
		}
		if !before.IsZero() && !c.LastMessageAt.Before(before) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteConversationCascade(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for msgID, m := range s.messages {
		if m.ConversationID == id {
			delete(s.messages, msgID)
			deleted++
		}
	}
	delete(s.conversations, id)
	return deleted, nil
}

func (s *Store) SaveMessage(_ context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *msg
	s.messages[msg.ID] = &cp
	if c, ok := s.conversations[msg.ConversationID]; ok {
		c.LastMessage = msg.Content
		c.LastMessageAt = msg.CreatedAt
	}
	return nil
}

func (s *Store) MessagesByConversation(_ context.Context, convID string, page, limit int) ([]models.Message, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []models.Message
	for _, m := range s.messages {
		if m.ConversationID == convID {
			all = append(all, *m)
		}
	}
	// newest first, like the Mongo query
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *Store) MarkConversationRead(_ context.Context, convID, receiverID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var updated int64
	for _, m := range s.messages {
		if m.ConversationID == convID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			t := at
			m.ReadAt = &t
			updated++
		}
	}
	return updated, nil
}

func (s *Store) CountUnread(_ context.Context, receiverID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *Store) ExpertProfileByID(_ context.Context, id string) (*models.ExpertProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.experts[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UserSummaries(_ context.Context, ids []string) (map[string]models.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
