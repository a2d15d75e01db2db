// internal/app/store/promptassign/promptassignstore.go
package promptassignstore

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
	return &Store{c: db.Collection("promptset_assignments")}
}

// Create inserts one assignment covering every member in a.MemberIDs.
func (s *Store) Create(ctx context.Context, a models.AssignPromptSet) (models.AssignPromptSet, error) {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.AssignPromptSet{}, err
	}
	return a, nil
}

// AlreadyAssigned returns the subset of memberIDs that already have an
// assignment row for the prompt set.
func (s *Store) AlreadyAssigned(ctx context.Context, promptSetID primitive.ObjectID, memberIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"promptset_id": promptSetID, "member_ids": bson.M{"$in": memberIDs}},
		options.Find().SetProjection(bson.M{"member_ids": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	want := make(map[primitive.ObjectID]bool, len(memberIDs))
	for _, id := range memberIDs {
		want[id] = true
	}
	seen := make(map[primitive.ObjectID]bool)
	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			MemberIDs []primitive.ObjectID `bson:"member_ids"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		for _, id := range row.MemberIDs {
			if want[id] && !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.AssignPromptSet, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.AssignPromptSet
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByLeader returns the leader's assignments, newest first.
func (s *Store) ListByLeader(ctx context.Context, leaderID primitive.ObjectID) ([]models.AssignPromptSet, error) {
	return s.find(ctx, bson.M{"leader_id": leaderID})
}

// ListForMember returns assignments that include memberID.
func (s *Store) ListForMember(ctx context.Context, memberID primitive.ObjectID) ([]models.AssignPromptSet, error) {
	return s.find(ctx, bson.M{"member_ids": memberID})
}

// CountForMember counts assignments that include memberID.
func (s *Store) CountForMember(ctx context.Context, memberID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"member_ids": memberID})
}
