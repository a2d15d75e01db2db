// internal/app/store/progress/progressstore.go
package progressstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStale is returned when the cursor moved between read and write,
// typically because the same prompt was submitted twice concurrently.
var ErrStale = errors.New("progress changed; reload and try again")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("promptset_progress")}
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

// Ensure creates progress at cursor unless a row already exists for the
// pair. created reports whether a row was inserted.
func (s *Store) Ensure(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID, cursor int) (created bool, err error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, pairFilter(id, promptSetID),
		bson.M{"$setOnInsert": bson.M{
			"current_prompt_index": cursor,
			"completed_prompts":    bson.A{},
			"notes":                bson.A{},
			"created_at":           now,
			"updated_at":           now,
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

func (s *Store) Get(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (models.PromptSetProgress, error) {
	var p models.PromptSetProgress
	err := s.c.FindOne(ctx, pairFilter(id, promptSetID)).Decode(&p)
	return p, err
}

// AdvanceFromIntro moves a cursor sitting on the introduction (0) to 1.
// moved is false when the cursor was elsewhere.
func (s *Store) AdvanceFromIntro(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (moved bool, err error) {
	f := append(pairFilter(id, promptSetID), bson.E{Key: "current_prompt_index", Value: 0})
	res, err := s.c.UpdateOne(ctx, f, bson.M{"$set": bson.M{
		"current_prompt_index": 1,
		"updated_at":           time.Now().UTC(),
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// RecordNote completes the prompt at cursor: the index and note are
// appended and the cursor advances by one. The update only applies while
// the stored cursor still equals cursor, so the cursor never moves
// backwards and a prompt is never counted twice.
func (s *Store) RecordNote(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID, cursor int, note string) (models.PromptSetProgress, error) {
	f := append(pairFilter(id, promptSetID),
		bson.E{Key: "current_prompt_index", Value: cursor},
		bson.E{Key: "completed_prompts", Value: bson.M{"$ne": cursor}},
	)

	var p models.PromptSetProgress
	err := s.c.FindOneAndUpdate(ctx, f,
		bson.M{
			"$push": bson.M{"completed_prompts": cursor, "notes": note},
			"$inc":  bson.M{"current_prompt_index": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PromptSetProgress{}, ErrStale
	}
	return p, err
}

// Delete removes the pair's progress.
func (s *Store) Delete(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, pairFilter(id, promptSetID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.PromptSetProgress, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PromptSetProgress
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIdentity returns the identity's in-flight progress rows.
func (s *Store) ListByIdentity(ctx context.Context, id models.Identity) ([]models.PromptSetProgress, error) {
	return s.find(ctx, bson.M{"identity.kind": id.Kind, "identity.id": id.ID})
}

// ListByMembers returns progress rows held by any of the given ids.
func (s *Store) ListByMembers(ctx context.Context, ids []primitive.ObjectID) ([]models.PromptSetProgress, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"identity.id": bson.M{"$in": ids}})
}

// DeleteShadowed removes progress rows whose pair already has a
// completion. Such rows only exist if a completion write was interrupted
// before the progress delete.
func (s *Store) DeleteShadowed(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.M{
			"from": "promptset_completions",
			"let":  bson.M{"iid": "$identity.id", "ps": "$promptset_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$identity.id", "$$iid"}},
					bson.M{"$eq": bson.A{"$promptset_id", "$$ps"}},
				}}}},
				bson.M{"$limit": 1},
				bson.M{"$project": bson.M{"_id": 1}},
			},
			"as": "done",
		}}},
		{{Key: "$match", Value: bson.M{"done.0": bson.M{"$exists": true}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
