package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/automatehub/messaging/config"
)

const connectTimeout = 10 * time.Second

// Mongo owns the conversations and messages collections and provides
// read-only access to the expert_profiles and users collections maintained
// by the rest of the platform.
type Mongo struct {
	client        *mongo.Client
	db            *mongo.Database
	conversations *mongo.Collection
	messages      *mongo.Collection
	experts       *mongo.Collection
	users         *mongo.Collection
	log           *zap.SugaredLogger
}

// NewMongo connects, pings, and ensures the indexes backing the uniqueness
// and ordering invariants.
func NewMongo(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDB)
	m := &Mongo{
		client:        client,
		db:            db,
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
		experts:       db.Collection("expert_profiles"),
		users:         db.Collection("users"),
		log:           log,
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	log.Infow("mongo connected", "db", cfg.MongoDB)
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.conversations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "expert_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "participants", Value: 1}}},
		{Keys: bson.D{{Key: "last_message_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = m.messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	return err
}

// withTransaction runs fn inside a Mongo transaction. Requires the server to
// run as a replica set; the two-step message write and the cascade delete
// both depend on this for atomicity.
func (m *Mongo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Disconnect closes the MongoDB connection.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
