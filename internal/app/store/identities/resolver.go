// internal/app/store/identities/resolver.go
package identities

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UnknownAuthor is shown when an author id matches no account.
const UnknownAuthor = "Unknown Author"

// lookupOrder is the order collections are searched for an id whose kind
// was not recorded.
var lookupOrder = []models.IdentityKind{models.KindLeader, models.KindGroupMember, models.KindMember}

// Account is the kind-independent view of one identity document.
// GroupID is the leader _id for leaders and group members and zero for
// individual members.
type Account struct {
	models.Identity
	Name         string
	Email        string
	PasswordHash string
	Status       string
	Image        string
	Organization string
	GroupID      primitive.ObjectID
}

// InGroup reports whether the account belongs to the group led by leaderID.
func (a Account) InGroup(leaderID primitive.ObjectID) bool {
	return !a.GroupID.IsZero() && a.GroupID == leaderID
}

// AuthorInfo is a resolved author for display.
type AuthorInfo struct {
	ID    primitive.ObjectID  `json:"id"`
	Kind  models.IdentityKind `json:"kind,omitempty"`
	Name  string              `json:"name"`
	Image string              `json:"image,omitempty"`
}

// Resolver reads across the three identity collections.
type Resolver struct {
	colls map[models.IdentityKind]*mongo.Collection
}

func New(db *mongo.Database) *Resolver {
	return &Resolver{colls: map[models.IdentityKind]*mongo.Collection{
		models.KindMember:      db.Collection(models.KindMember.Collection()),
		models.KindLeader:      db.Collection(models.KindLeader.Collection()),
		models.KindGroupMember: db.Collection(models.KindGroupMember.Collection()),
	}}
}

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Status       string             `bson:"status"`
	Image        string             `bson:"image"`
	Organization string             `bson:"organization"`
	GroupID      primitive.ObjectID `bson:"group_id"`
}

func (r *Resolver) findOne(ctx context.Context, kind models.IdentityKind, filter bson.M) (Account, error) {
	c, ok := r.colls[kind]
	if !ok {
		return Account{}, mongo.ErrNoDocuments
	}
	var d accountDoc
	if err := c.FindOne(ctx, filter).Decode(&d); err != nil {
		return Account{}, err
	}
	a := Account{
		Identity:     models.Identity{Kind: kind, ID: d.ID},
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Status:       d.Status,
		Image:        d.Image,
		Organization: d.Organization,
	}
	switch kind {
	case models.KindLeader:
		a.GroupID = d.ID
	case models.KindGroupMember:
		a.GroupID = d.GroupID
		// Group members inherit the leader's organization.
		var l struct {
			Organization string `bson:"organization"`
		}
		err := r.colls[models.KindLeader].FindOne(ctx, bson.M{"_id": d.GroupID},
			options.FindOne().SetProjection(bson.M{"organization": 1})).Decode(&l)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, err
		}
		a.Organization = l.Organization
	}
	return a, nil
}

// Lookup loads the account an identity refers to.
func (r *Resolver) Lookup(ctx context.Context, id models.Identity) (Account, error) {
	if !id.Kind.Valid() {
		return Account{}, mongo.ErrNoDocuments
	}
	return r.findOne(ctx, id.Kind, bson.M{"_id": id.ID})
}

// Exists reports whether the identity is present in its own collection.
func (r *Resolver) Exists(ctx context.Context, id models.Identity) (bool, error) {
	c, ok := r.colls[id.Kind]
	if !ok {
		return false, nil
	}
	n, err := c.CountDocuments(ctx, bson.M{"_id": id.ID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Probe finds which collection holds id, searching leaders, then group
// members, then members. It is only needed for ids stored without a kind.
func (r *Resolver) Probe(ctx context.Context, id primitive.ObjectID) (Account, error) {
	for _, k := range lookupOrder {
		a, err := r.findOne(ctx, k, bson.M{"_id": id})
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, err
		}
	}
	return Account{}, mongo.ErrNoDocuments
}

// ResolveAuthor returns display data for a unit's author. Authors with a
// recorded kind are read directly; others are looked up in lookupOrder.
// An id that matches nothing resolves to UnknownAuthor rather than an
// error.
func (r *Resolver) ResolveAuthor(ctx context.Context, author models.Author) (AuthorInfo, error) {
	var (
		a   Account
		err error
	)
	if author.Kind.Valid() {
		a, err = r.Lookup(ctx, models.Identity{Kind: author.Kind, ID: author.ID})
	} else {
		a, err = r.Probe(ctx, author.ID)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return AuthorInfo{ID: author.ID, Kind: author.Kind, Name: UnknownAuthor}, nil
	}
	if err != nil {
		return AuthorInfo{}, err
	}
	return AuthorInfo{ID: a.ID, Kind: a.Kind, Name: a.Name, Image: a.Image}, nil
}

// FindByEmail searches every identity collection for an active account
// with the given email.
func (r *Resolver) FindByEmail(ctx context.Context, email string) (Account, error) {
	ci := text.Fold(strings.TrimSpace(email))
	for _, k := range lookupOrder {
		a, err := r.findOne(ctx, k, bson.M{"email_ci": ci, "status": models.StatusActive})
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, err
		}
	}
	return Account{}, mongo.ErrNoDocuments
}

// EmailTaken reports whether any active account already uses email.
func (r *Resolver) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// FetchUser implements auth.UserFetcher. Inactive or missing accounts
// yield a nil user so the session is treated as signed out.
func (r *Resolver) FetchUser(ctx context.Context, id models.Identity) (*auth.SessionUser, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	a, err := r.Lookup(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusInactive {
		return nil, nil
	}
	return SessionUser(a), nil
}

// SessionUser converts an account to what the session stores.
func SessionUser(a Account) *auth.SessionUser {
	return &auth.SessionUser{ID: a.ID.Hex(), Kind: a.Kind, Name: a.Name, Email: a.Email}
}

// UpdateProfile sets the display fields shared by every identity kind.
func (r *Resolver) UpdateProfile(ctx context.Context, id models.Identity, name, image string) error {
	return r.set(ctx, id, bson.M{"name": name, "image": image})
}

// SetPasswordHash replaces the stored credential.
func (r *Resolver) SetPasswordHash(ctx context.Context, id models.Identity, hash string) error {
	return r.set(ctx, id, bson.M{"password_hash": hash})
}

func (r *Resolver) set(ctx context.Context, id models.Identity, fields bson.M) error {
	c, ok := r.colls[id.Kind]
	if !ok {
		return mongo.ErrNoDocuments
	}
	fields["updated_at"] = time.Now().UTC()
	res, err := c.UpdateOne(ctx, bson.M{"_id": id.ID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
