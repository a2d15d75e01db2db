// internal/app/store/badgedrafts/badgedraftstore.go
package badgedraftstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store keeps short-lived badge selections. Expired drafts are removed by
// the TTL index and by the cleanup job; reads ignore them either way.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("badge_drafts")}
}

// Create stores badge for owner and returns the draft with its token.
func (s *Store) Create(ctx context.Context, owner models.Identity, badge models.Badge, ttl time.Duration) (models.BadgeDraft, error) {
	d := models.BadgeDraft{
		Token:     uuid.NewString(),
		Identity:  owner,
		Badge:     badge,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.BadgeDraft{}, err
	}
	return d, nil
}

// Get returns the owner's unexpired draft for token.
func (s *Store) Get(ctx context.Context, owner models.Identity, token string) (models.BadgeDraft, error) {
	var d models.BadgeDraft
	err := s.c.FindOne(ctx, bson.M{
		"token":         token,
		"identity.kind": owner.Kind,
		"identity.id":   owner.ID,
		"expires_at":    bson.M{"$gt": time.Now().UTC()},
	}).Decode(&d)
	return d, err
}

// Delete removes a draft once it has been consumed.
func (s *Store) Delete(ctx context.Context, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"token": token})
	return err
}

// DeleteExpired removes drafts whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
