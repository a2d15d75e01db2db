// internal/app/store/groupmembers/groupmemberstore.go
package groupmemberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateEmail = errors.New("a group member with this email already exists")
	ErrGroupFull      = errors.New("this group has no free seats")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_members")}
}

// Join inserts a group member into the leader's group when a seat is free.
// The seat check and insert are not atomic; a concurrent join can exceed
// the seat count by the number of racing requests.
func (s *Store) Join(ctx context.Context, leader models.Leader, gm models.GroupMember) (models.GroupMember, error) {
	n, err := s.CountByGroup(ctx, leader.ID)
	if err != nil {
		return models.GroupMember{}, err
	}
	if n >= int64(leader.Seats()) {
		return models.GroupMember{}, ErrGroupFull
	}

	now := time.Now().UTC()
	if gm.ID.IsZero() {
		gm.ID = primitive.NewObjectID()
	}
	gm.GroupID = leader.ID
	gm.Email = strings.TrimSpace(gm.Email)
	gm.EmailCI = text.Fold(gm.Email)
	gm.MembershipType = string(models.KindGroupMember)
	if gm.Status == "" {
		gm.Status = models.StatusActive
	}
	gm.CreatedAt = now
	gm.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, gm); err != nil {
		if wafflemongo.IsDup(err) {
			return models.GroupMember{}, ErrDuplicateEmail
		}
		return models.GroupMember{}, err
	}
	return gm, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupMember, error) {
	var gm models.GroupMember
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&gm)
	return gm, err
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.GroupMember, error) {
	var gm models.GroupMember
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&gm)
	return gm, err
}

// ListByGroup returns the leader's group members sorted by name.
func (s *Store) ListByGroup(ctx context.Context, leaderID primitive.ObjectID) ([]models.GroupMember, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"group_id": leaderID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.GroupMember
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountByGroup(ctx context.Context, leaderID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": leaderID})
}

// InGroup returns the subset of ids that belong to the leader's group.
func (s *Store) InGroup(ctx context.Context, leaderID primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx,
		bson.M{"group_id": leaderID, "_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = true
	}
	return out, cur.Err()
}

// Remove deletes a group member from the leader's group. It reports
// mongo.ErrNoDocuments when the member is not in that group.
func (s *Store) Remove(ctx context.Context, leaderID, memberID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": memberID, "group_id": leaderID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
