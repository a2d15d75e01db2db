// internal/app/store/units/unitstore.go
package unitstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrUnknownKind = errors.New("unknown unit type")
	// ErrStatus is returned when a status transition does not apply to the
	// unit's current status.
	ErrStatus = errors.New("unit is not in a state that allows this change")
)

// Store reads and writes content units across the per-kind collections.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) coll(k models.UnitKind) (*mongo.Collection, error) {
	if !k.Valid() {
		return nil, ErrUnknownKind
	}
	return s.db.Collection(k.Collection()), nil
}

// Create inserts a unit. New units start "in progress" unless a status
// is already set.
func (s *Store) Create(ctx context.Context, u models.Unit) error {
	c, err := s.coll(u.Kind())
	if err != nil {
		return err
	}
	b := u.Base()
	now := time.Now().UTC()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if b.Status == "" {
		b.Status = models.UnitStatusInProgress
	}
	if b.SecondaryTopics == nil {
		b.SecondaryTopics = []string{}
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err = c.InsertOne(ctx, u)
	return err
}

// Get loads one unit of the given kind.
func (s *Store) Get(ctx context.Context, k models.UnitKind, id primitive.ObjectID) (models.Unit, error) {
	c, err := s.coll(k)
	if err != nil {
		return nil, err
	}
	u := models.NewUnit(k)
	if err := c.FindOne(ctx, bson.M{"_id": id}).Decode(u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetPromptSet loads a prompt set by id.
func (s *Store) GetPromptSet(ctx context.Context, id primitive.ObjectID) (models.PromptSet, error) {
	var ps models.PromptSet
	err := s.db.Collection(models.UnitPromptSet.Collection()).FindOne(ctx, bson.M{"_id": id}).Decode(&ps)
	return ps, err
}

// Replace overwrites a unit's body. The author and creation time are
// preserved from the stored document.
func (s *Store) Replace(ctx context.Context, u models.Unit) error {
	c, err := s.coll(u.Kind())
	if err != nil {
		return err
	}
	b := u.Base()
	b.UpdatedAt = time.Now().UTC()
	if b.SecondaryTopics == nil {
		b.SecondaryTopics = []string{}
	}
	res, err := c.ReplaceOne(ctx, bson.M{"_id": b.ID, "author.id": b.Author.ID}, u)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Transition moves a unit from one of the allowed statuses to next.
func (s *Store) Transition(ctx context.Context, k models.UnitKind, id primitive.ObjectID, from []string, next string) error {
	c, err := s.coll(k)
	if err != nil {
		return err
	}
	res, err := c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return mongo.ErrNoDocuments
		}
		return ErrStatus
	}
	return nil
}

// Delete removes a unit owned by authorID.
func (s *Store) Delete(ctx context.Context, k models.UnitKind, id, authorID primitive.ObjectID) error {
	c, err := s.coll(k)
	if err != nil {
		return err
	}
	res, err := c.DeleteOne(ctx, bson.M{"_id": id, "author.id": authorID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Summaries                                                                  */
/* -------------------------------------------------------------------------- */

// Summaries runs filter against each kind's collection and returns the
// merged projections, most recently updated first.
func (s *Store) Summaries(ctx context.Context, kinds []models.UnitKind, filter bson.M) ([]models.UnitSummary, error) {
	var out []models.UnitSummary
	for _, k := range kinds {
		rows, err := s.summariesOf(ctx, k, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID.Hex() > out[j].ID.Hex()
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) summariesOf(ctx context.Context, k models.UnitKind, filter bson.M) ([]models.UnitSummary, error) {
	c, err := s.coll(k)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		filter = bson.M{}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$project", Value: bson.M{
			"kind":             bson.M{"$literal": string(k)},
			"title":            "$" + k.TitleField(),
			"main_topic":       1,
			"secondary_topics": 1,
			"visibility":       1,
			"author":           1,
			"status":           1,
			"updated_at":       1,
		}}},
	}
	cur, err := c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []models.UnitSummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByAuthor returns every unit the author owns, upcoming placeholders
// included.
func (s *Store) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.UnitSummary, error) {
	return s.Summaries(ctx, models.UnitKinds, bson.M{"author.id": authorID})
}

// ListByAuthors returns library units owned by any of authorIDs.
func (s *Store) ListByAuthors(ctx context.Context, authorIDs []primitive.ObjectID) ([]models.UnitSummary, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	return s.Summaries(ctx, models.LibraryKinds, bson.M{"author.id": bson.M{"$in": authorIDs}})
}

// ListApprovedByTopic returns approved library units whose main or
// secondary topic is topic.
func (s *Store) ListApprovedByTopic(ctx context.Context, topic string) ([]models.UnitSummary, error) {
	return s.Summaries(ctx, models.LibraryKinds, bson.M{
		"status": models.UnitStatusApproved,
		"$or": bson.A{
			bson.M{"main_topic": topic},
			bson.M{"secondary_topics": topic},
		},
	})
}

// ListSubmitted returns library units awaiting approval.
func (s *Store) ListSubmitted(ctx context.Context) ([]models.UnitSummary, error) {
	return s.Summaries(ctx, models.LibraryKinds, bson.M{"status": models.UnitStatusSubmitted})
}

// SummariesFor resolves tagged unit references to summaries. References
// to deleted units are dropped.
func (s *Store) SummariesFor(ctx context.Context, refs []models.TaggedUnit) ([]models.UnitSummary, error) {
	byKind := make(map[models.UnitKind][]primitive.ObjectID)
	for _, r := range refs {
		if r.UnitType.Valid() {
			byKind[r.UnitType] = append(byKind[r.UnitType], r.ItemID)
		}
	}
	var out []models.UnitSummary
	for _, k := range models.UnitKinds {
		ids := byKind[k]
		if len(ids) == 0 {
			continue
		}
		rows, err := s.summariesOf(ctx, k, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Exists reports whether a unit of kind k with id exists.
func (s *Store) Exists(ctx context.Context, k models.UnitKind, id primitive.ObjectID) (bool, error) {
	c, err := s.coll(k)
	if err != nil {
		return false, err
	}
	n, err := c.CountDocuments(ctx, bson.M{"_id": id})
	return n > 0, err
}
