// internal/app/store/completions/completionstore.go
package completionstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("promptset_completions")}
}

// pairFilter matches one (identity, prompt set) pair. It doubles as the
// seed document for upserts, so field order is fixed.
func pairFilter(id models.Identity, promptSetID primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "identity.kind", Value: id.Kind},
		{Key: "identity.id", Value: id.ID},
		{Key: "promptset_id", Value: promptSetID},
	}
}

// Record writes the completion once per pair. A repeated call leaves the
// first record untouched and reports created=false.
func (s *Store) Record(ctx context.Context, c models.PromptSetCompletion) (created bool, err error) {
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now().UTC()
	}
	if c.Notes == nil {
		c.Notes = []string{}
	}
	res, err := s.c.UpdateOne(ctx, pairFilter(c.Identity, c.PromptSetID),
		bson.M{"$setOnInsert": bson.M{
			"earned_badge": c.EarnedBadge,
			"notes":        c.Notes,
			"completed_at": c.CompletedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// Exists reports whether the pair has a completion.
func (s *Store) Exists(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, pairFilter(id, promptSetID), options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Store) Get(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (models.PromptSetCompletion, error) {
	var c models.PromptSetCompletion
	err := s.c.FindOne(ctx, pairFilter(id, promptSetID)).Decode(&c)
	return c, err
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.PromptSetCompletion, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "completed_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PromptSetCompletion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIdentity returns the identity's completions, newest first.
func (s *Store) ListByIdentity(ctx context.Context, id models.Identity) ([]models.PromptSetCompletion, error) {
	return s.find(ctx, bson.M{"identity.kind": id.Kind, "identity.id": id.ID})
}

// ListByMembers returns completions held by any of the given ids.
func (s *Store) ListByMembers(ctx context.Context, ids []primitive.ObjectID) ([]models.PromptSetCompletion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"identity.id": bson.M{"$in": ids}})
}
