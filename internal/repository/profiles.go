package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/automatehub/messaging/internal/apperror"
	"github.com/automatehub/messaging/internal/models"
)

func (m *Mongo) ExpertProfileByID(ctx context.Context, id string) (*models.ExpertProfile, error) {
	var profile models.ExpertProfile
	err := m.experts.FindOne(ctx, bson.M{"_id": id}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UserSummaries resolves public profile summaries for the given user ids.
// Unknown ids are simply absent from the result; callers tolerate gaps.
func (m *Mongo) UserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []models.UserSummary
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
