package suggestionstore_test

import (
	"testing"
	"time"

	suggestionstore "github.com/twennie/twennie/internal/app/store/suggestions"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateAndListByGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := suggestionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := primitive.NewObjectID()
	other := primitive.NewObjectID()
	by := models.Identity{Kind: models.KindGroupMember, ID: primitive.NewObjectID()}

	first, err := store.Create(ctx, models.TopicSuggestion{GroupID: group, CreatedBy: by, Topic: "feedback"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID.IsZero() || first.CreatedAt.IsZero() {
		t.Error("expected ID and CreatedAt to be set")
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Create(ctx, models.TopicSuggestion{GroupID: group, CreatedBy: by, Topic: "delegation", Note: "soon"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, models.TopicSuggestion{GroupID: other, CreatedBy: by, Topic: "strategy"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.ListByGroup(ctx, group)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(list))
	}
	if list[0].Topic != "delegation" {
		t.Errorf("expected newest first, got %q", list[0].Topic)
	}

	n, err := store.CountByGroup(ctx, group)
	if err != nil {
		t.Fatalf("CountByGroup failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountByGroup = %d, want 2", n)
	}
}

func TestListByGroup_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := suggestionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	list, err := store.ListByGroup(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no suggestions, got %d", len(list))
	}
}
