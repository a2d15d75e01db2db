// internal/app/store/leaders/leaderstore.go
package leaderstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateEmail = errors.New("a leader with this email already exists")
	ErrBadGroupSize   = errors.New("group size must be between 1 and 10")
)

// codeAttempts bounds retries when a generated registration code collides.
const codeAttempts = 5

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("leaders")}
}

// NewRegistrationCode returns an 8-character uppercase code.
func NewRegistrationCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}

// Create inserts a leader with a fresh registration code.
func (s *Store) Create(ctx context.Context, l models.Leader) (models.Leader, error) {
	if l.GroupSize < 1 || l.GroupSize > models.MaxGroupSize {
		return models.Leader{}, ErrBadGroupSize
	}
	now := time.Now().UTC()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	l.Email = strings.TrimSpace(l.Email)
	l.EmailCI = text.Fold(l.Email)
	l.OrganizationCI = text.Fold(l.Organization)
	l.MembershipType = string(models.KindLeader)
	if l.Status == "" {
		l.Status = models.StatusActive
	}
	l.CreatedAt = now
	l.UpdatedAt = now

	for i := 0; i < codeAttempts; i++ {
		l.RegistrationCode = NewRegistrationCode()
		_, err := s.c.InsertOne(ctx, l)
		if err == nil {
			return l, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Leader{}, err
		}
		// Distinguish an email collision from a code collision.
		if n, cerr := s.c.CountDocuments(ctx, bson.M{"email_ci": l.EmailCI}); cerr == nil && n > 0 {
			return models.Leader{}, ErrDuplicateEmail
		}
	}
	return models.Leader{}, errors.New("could not allocate a unique registration code")
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Leader, error) {
	var l models.Leader
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	return l, err
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.Leader, error) {
	var l models.Leader
	err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&l)
	return l, err
}

// GetByCode finds the active leader owning a registration code.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Leader, error) {
	var l models.Leader
	err := s.c.FindOne(ctx, bson.M{
		"registration_code": strings.ToUpper(strings.TrimSpace(code)),
		"status":            models.StatusActive,
	}).Decode(&l)
	return l, err
}

// RegenerateCode replaces the leader's registration code and returns it.
func (s *Store) RegenerateCode(ctx context.Context, id primitive.ObjectID) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := NewRegistrationCode()
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": id},
			bson.M{"$set": bson.M{"registration_code": code, "updated_at": time.Now().UTC()}},
		)
		if err == nil {
			if res.MatchedCount == 0 {
				return "", mongo.ErrNoDocuments
			}
			return code, nil
		}
		if !wafflemongo.IsDup(err) {
			return "", err
		}
	}
	return "", errors.New("could not allocate a unique registration code")
}

// ListByOrganization returns leaders in the case-folded organization.
func (s *Store) ListByOrganization(ctx context.Context, organization string) ([]models.Leader, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"organization_ci": text.Fold(organization)},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Leader
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetSubscription records the Stripe customer and subscription status.
func (s *Store) SetSubscription(ctx context.Context, id primitive.ObjectID, customerID, status string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"stripe_customer_id":  customerID,
			"subscription_status": status,
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
