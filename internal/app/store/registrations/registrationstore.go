// internal/app/store/registrations/registrationstore.go
package registrationstore

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

// ErrDuplicate is returned when the identity is already registered.
var ErrDuplicate = errors.New("already registered for this prompt set")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("promptset_registrations")}
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

// Create inserts a registration.
func (s *Store) Create(ctx context.Context, r models.PromptSetRegistration) (models.PromptSetRegistration, error) {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.PromptSetRegistration{}, ErrDuplicate
		}
		return models.PromptSetRegistration{}, err
	}
	return r, nil
}

// EnsureAssigned creates an assigned registration unless one already
// exists for the pair. created reports whether a row was inserted.
func (s *Store) EnsureAssigned(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID, frequency string, target time.Time) (created bool, err error) {
	res, err := s.c.UpdateOne(ctx, pairFilter(id, promptSetID),
		bson.M{"$setOnInsert": bson.M{
			"source":                 models.RegistrationAssigned,
			"frequency":              frequency,
			"target_completion_date": target,
			"created_at":             time.Now().UTC(),
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

// CountActiveSelf counts the identity's self registrations that are not
// yet completed. Assigned registrations are not counted.
func (s *Store) CountActiveSelf(ctx context.Context, id models.Identity) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"identity.kind": id.Kind,
		"identity.id":   id.ID,
		"source":        models.RegistrationSelf,
		"completed_at":  bson.M{"$exists": false},
	})
}

func (s *Store) Get(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (models.PromptSetRegistration, error) {
	var r models.PromptSetRegistration
	err := s.c.FindOne(ctx, pairFilter(id, promptSetID)).Decode(&r)
	return r, err
}

// MarkCompleted stamps completed_at on the pair's registration, if any.
func (s *Store) MarkCompleted(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, pairFilter(id, promptSetID), bson.M{"$set": bson.M{"completed_at": at}})
	return err
}

// Delete removes the pair's registration.
func (s *Store) Delete(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, pairFilter(id, promptSetID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.PromptSetRegistration, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.PromptSetRegistration
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByIdentity returns the identity's registrations, newest first.
func (s *Store) ListByIdentity(ctx context.Context, id models.Identity) ([]models.PromptSetRegistration, error) {
	return s.find(ctx, bson.M{"identity.kind": id.Kind, "identity.id": id.ID})
}

// ListByMembers returns registrations held by any of the given ids.
func (s *Store) ListByMembers(ctx context.Context, ids []primitive.ObjectID) ([]models.PromptSetRegistration, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"identity.id": bson.M{"$in": ids}})
}
