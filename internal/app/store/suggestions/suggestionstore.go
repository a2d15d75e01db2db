// internal/app/store/suggestions/suggestionstore.go
package suggestionstore

import (
	"context"
	"time"

	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("topic_suggestions")}
}

func (s *Store) Create(ctx context.Context, ts models.TopicSuggestion) (models.TopicSuggestion, error) {
	if ts.ID.IsZero() {
		ts.ID = primitive.NewObjectID()
	}
	ts.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, ts)
	return ts, err
}

// ListByGroup returns suggestions posted to the leader's group, newest first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.TopicSuggestion, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.TopicSuggestion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}
