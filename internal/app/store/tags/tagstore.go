// internal/app/store/tags/tagstore.go
package tagstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConflict is returned when two writers race to create the same new
// tag name and the unique index rejects the loser.
var ErrConflict = errors.New("tag was created concurrently; retry the request")

// Store persists tags. Every mutation is a single atomic update so
// concurrent writers never overwrite each other's associations.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tags")}
}

// byName matches a tag case-insensitively; names are unique on name_ci.
func byName(name string) bson.M {
	return bson.M{"name_ci": text.Fold(name)}
}

// Association is what a tag is attached to: a unit or a topic.
type Association struct {
	Unit  *models.TaggedUnit
	Topic string
}

func (a Association) addToSet() bson.M {
	if a.Unit != nil {
		return bson.M{"associated_units": *a.Unit}
	}
	return bson.M{"associated_topics": a.Topic}
}

func (a Association) pull() bson.M {
	if a.Unit != nil {
		return bson.M{"associated_units": bson.M{"item_id": a.Unit.ItemID, "unit_type": a.Unit.UnitType}}
	}
	return bson.M{"associated_topics": a.Topic}
}

// Attach creates the tag if the name is new (recording creator) and adds
// the association if it is not already present. created reports whether
// this call inserted the tag.
func (s *Store) Attach(ctx context.Context, name string, creator models.Identity, assoc Association) (created bool, err error) {
	now := time.Now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":             name,
			"created_by":       creator.ID,
			"created_by_model": creator.Kind,
			"created_at":       now,
		},
		"$set": bson.M{"updated_at": now},
	}
	if assoc.Unit != nil || assoc.Topic != "" {
		update["$addToSet"] = assoc.addToSet()
	}
	res, err := s.c.UpdateOne(ctx, byName(name), update, options.Update().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, ErrConflict
		}
		return false, err
	}
	return res.UpsertedCount == 1, nil
}

// Assign pushes an assignment for each entry whose member is not already
// assigned. It returns the member ids that were newly added.
func (s *Store) Assign(ctx context.Context, name string, entries []models.TagAssignment) ([]primitive.ObjectID, error) {
	var added []primitive.ObjectID
	for _, a := range entries {
		if a.AssignedAt.IsZero() {
			a.AssignedAt = time.Now().UTC()
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"name_ci": text.Fold(name), "assigned_to.member_id": bson.M{"$ne": a.MemberID}},
			bson.M{
				"$push": bson.M{"assigned_to": a},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			return added, err
		}
		if res.ModifiedCount == 1 {
			added = append(added, a.MemberID)
		}
	}
	return added, nil
}

// Detach removes one association. removed reports whether it was present.
func (s *Store) Detach(ctx context.Context, name string, assoc Association) (removed bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		byName(name),
		bson.M{"$pull": assoc.pull(), "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}
	return res.ModifiedCount == 1, nil
}

// Unassign removes the member's assignment entry.
func (s *Store) Unassign(ctx context.Context, name string, memberID primitive.ObjectID) (removed bool, err error) {
	res, err := s.c.UpdateOne(ctx,
		byName(name),
		bson.M{
			"$pull": bson.M{"assigned_to": bson.M{"member_id": memberID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}
	return res.ModifiedCount == 1, nil
}

// DeleteIfEmpty deletes the tag when it has no associations and no
// assignments left. The emptiness test is part of the delete filter so a
// concurrent attach wins over the delete.
func (s *Store) DeleteIfEmpty(ctx context.Context, name string) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"name_ci":             text.Fold(name),
		"associated_units.0":  bson.M{"$exists": false},
		"associated_topics.0": bson.M{"$exists": false},
		"assigned_to.0":       bson.M{"$exists": false},
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// CompleteAssignment stamps completed_at on the member's open assignment.
// It reports mongo.ErrNoDocuments when there is no open assignment.
func (s *Store) CompleteAssignment(ctx context.Context, name string, memberID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"name_ci": text.Fold(name),
			"assigned_to": bson.M{"$elemMatch": bson.M{
				"member_id":    memberID,
				"completed_at": bson.M{"$exists": false},
			}},
		},
		bson.M{"$set": bson.M{"assigned_to.$.completed_at": now, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) GetByName(ctx context.Context, name string) (models.Tag, error) {
	var t models.Tag
	err := s.c.FindOne(ctx, byName(name)).Decode(&t)
	return t, err
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Tag, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Tag
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCreatedBy returns the tags created by id.
func (s *Store) ListCreatedBy(ctx context.Context, id models.Identity) ([]models.Tag, error) {
	return s.find(ctx, bson.M{"created_by": id.ID, "created_by_model": id.Kind})
}

// ListAssignedTo returns tags carrying an assignment for memberID.
func (s *Store) ListAssignedTo(ctx context.Context, memberID primitive.ObjectID) ([]models.Tag, error) {
	return s.find(ctx, bson.M{"assigned_to.member_id": memberID})
}

// ListForUnit returns the tags attached to a unit.
func (s *Store) ListForUnit(ctx context.Context, unit models.TaggedUnit) ([]models.Tag, error) {
	return s.find(ctx, bson.M{"associated_units": bson.M{"$elemMatch": bson.M{
		"item_id": unit.ItemID, "unit_type": unit.UnitType,
	}}})
}
