// internal/app/store/dashboardseen/dashboardseenstore.go
package dashboardseenstore

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

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("dashboard_seen")}
}

func keyFilter(userID primitive.ObjectID, role models.IdentityKind) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "role", Value: role}}
}

// Get returns the baseline row. found is false when none exists yet.
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID, role models.IdentityKind) (seen models.DashboardSeen, found bool, err error) {
	err = s.c.FindOne(ctx, keyFilter(userID, role)).Decode(&seen)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DashboardSeen{}, false, nil
	}
	if err != nil {
		return models.DashboardSeen{}, false, err
	}
	return seen, true, nil
}

// InitBaseline records counts as the first baseline. An existing row is
// left unchanged.
func (s *Store) InitBaseline(ctx context.Context, userID primitive.ObjectID, role models.IdentityKind, counts map[string]int) error {
	now := time.Now().UTC()
	tabs := make(map[string]models.TabSeen, len(counts))
	for tab, n := range counts {
		tabs[tab] = models.TabSeen{Count: n, SeenAt: now}
	}
	_, err := s.c.UpdateOne(ctx, keyFilter(userID, role),
		bson.M{"$setOnInsert": bson.M{"tabs": tabs, "created_at": now, "updated_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil && wafflemongo.IsDup(err) {
		return nil
	}
	return err
}

// MarkSeen advances one tab's baseline to count.
func (s *Store) MarkSeen(ctx context.Context, userID primitive.ObjectID, role models.IdentityKind, tab string, count int) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, keyFilter(userID, role),
		bson.M{
			"$set":         bson.M{"tabs." + tab: models.TabSeen{Count: count, SeenAt: now}, "updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil && wafflemongo.IsDup(err) {
		// Lost an insert race; the row now exists, so apply the set again.
		_, err = s.c.UpdateOne(ctx, keyFilter(userID, role),
			bson.M{"$set": bson.M{"tabs." + tab: models.TabSeen{Count: count, SeenAt: now}, "updated_at": now}})
	}
	return err
}
