package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func emailFor(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", ".") + "." + primitive.NewObjectID().Hex()[18:] + "@example.com"
}

// CreateMember inserts an active paid member.
func (f *Fixtures) CreateMember(ctx context.Context, name, organization string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	email := emailFor(name)
	m := models.Member{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Email:          email,
		EmailCI:        text.Fold(email),
		PasswordHash:   "x",
		MembershipType: models.MembershipPaid,
		Status:         models.StatusActive,
		Organization:   organization,
		OrganizationCI: text.Fold(organization),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateLeader inserts a leader with a group of the given size.
func (f *Fixtures) CreateLeader(ctx context.Context, name, organization string, groupSize int) models.Leader {
	f.t.Helper()

	now := time.Now().UTC()
	email := emailFor(name)
	l := models.Leader{
		ID:               primitive.NewObjectID(),
		Name:             name,
		Email:            email,
		EmailCI:          text.Fold(email),
		PasswordHash:     "x",
		MembershipType:   "leader",
		Status:           models.StatusActive,
		Organization:     organization,
		OrganizationCI:   text.Fold(organization),
		GroupName:        name + "'s group",
		GroupSize:        groupSize,
		RegistrationCode: strings.ToUpper(primitive.NewObjectID().Hex()[16:]),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("leaders").InsertOne(ctx, l); err != nil {
		f.t.Fatalf("failed to create test leader: %v", err)
	}
	return l
}

// CreateGroupMember inserts a group member into the leader's group.
func (f *Fixtures) CreateGroupMember(ctx context.Context, name string, leaderID primitive.ObjectID) models.GroupMember {
	f.t.Helper()

	now := time.Now().UTC()
	email := emailFor(name)
	gm := models.GroupMember{
		ID:             primitive.NewObjectID(),
		GroupID:        leaderID,
		Name:           name,
		Email:          email,
		EmailCI:        text.Fold(email),
		PasswordHash:   "x",
		MembershipType: "group_member",
		Status:         models.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("group_members").InsertOne(ctx, gm); err != nil {
		f.t.Fatalf("failed to create test group member: %v", err)
	}
	return gm
}

// CreateArticle inserts an article owned by author.
func (f *Fixtures) CreateArticle(ctx context.Context, title string, author models.Identity, status string, vis models.Visibility) models.Article {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Article{
		UnitBase: models.UnitBase{
			ID:              primitive.NewObjectID(),
			MainTopic:       "communication",
			SecondaryTopics: []string{},
			Visibility:      vis,
			Author:          models.Author{ID: author.ID, Kind: author.Kind},
			Status:          status,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		ArticleTitle: title,
		Content:      "<p>" + title + "</p>",
	}
	if _, err := f.db.Collection("articles").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test article: %v", err)
	}
	return a
}

// CreatePromptSet inserts an approved prompt set with 21 filled prompts.
func (f *Fixtures) CreatePromptSet(ctx context.Context, title string, author models.Identity) models.PromptSet {
	f.t.Helper()

	now := time.Now().UTC()
	ps := models.PromptSet{
		UnitBase: models.UnitBase{
			ID:              primitive.NewObjectID(),
			MainTopic:       "leadership",
			SecondaryTopics: []string{},
			Visibility:      models.VisibilityAllMembers,
			Author:          models.Author{ID: author.ID, Kind: author.Kind},
			Status:          models.UnitStatusApproved,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		PromptSetTitle:     title,
		Purpose:            "practice",
		SuggestedFrequency: "daily",
		Badge:              models.Badge{Image: "/badges/star.png", Name: "Star"},
	}
	for i := range ps.Prompts {
		ps.Prompts[i] = models.Prompt{Headline: "Prompt", Text: "Reflect."}
	}
	if _, err := f.db.Collection("promptsets").InsertOne(ctx, ps); err != nil {
		f.t.Fatalf("failed to create test prompt set: %v", err)
	}
	return ps
}

// SetPassword stores a bcrypt hash of password on the identity's document.
// MinCost keeps login tests fast.
func (f *Fixtures) SetPassword(ctx context.Context, id models.Identity, password string) {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash password: %v", err)
	}
	_, err = f.db.Collection(id.Kind.Collection()).UpdateOne(ctx,
		bson.M{"_id": id.ID},
		bson.M{"$set": bson.M{"password_hash": string(hash)}},
	)
	if err != nil {
		f.t.Fatalf("failed to set password: %v", err)
	}
}
