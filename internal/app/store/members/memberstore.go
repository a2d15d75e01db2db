// internal/app/store/members/memberstore.go
package memberstore

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
)

// ErrDuplicateEmail is returned when a member with the same email exists.
var ErrDuplicateEmail = errors.New("a member with this email already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Create inserts a new member. Email and organization are stored with
// case-folded shadows for lookups.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.Email = strings.TrimSpace(m.Email)
	m.EmailCI = text.Fold(m.Email)
	m.OrganizationCI = text.Fold(m.Organization)
	if m.MembershipType == "" {
		m.MembershipType = models.MembershipFree
	}
	if m.Status == "" {
		m.Status = models.StatusActive
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	return m, err
}

// GetByEmail looks a member up by case-folded email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&m)
	return m, err
}

// MarkConverted deactivates the member and links it to its new leader
// document. It only applies to active members so a second conversion
// attempt fails with mongo.ErrNoDocuments.
func (s *Store) MarkConverted(ctx context.Context, id, leaderID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusActive},
		bson.M{"$set": bson.M{
			"status":                 models.StatusInactive,
			"converted_to_leader_id": leaderID,
			"updated_at":             time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetSubscription records a paid subscription from the billing webhook.
func (s *Store) SetSubscription(ctx context.Context, id primitive.ObjectID, customerID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"stripe_customer_id":  customerID,
			"subscription_status": status,
			"membership_type":     models.MembershipPaid,
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
