package indexes_test

import (
	"testing"
	"time"

	"github.com/twennie/twennie/internal/app/system/indexes"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesExpectedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"members":                 {"uniq_members_email_ci"},
		"leaders":                 {"uniq_leaders_email_ci", "uniq_leaders_registration_code"},
		"group_members":           {"uniq_group_members_email_ci", "idx_group_members_group"},
		"articles":                {"idx_article_author", "idx_article_status_topic"},
		"promptsets":              {"idx_promptset_author", "idx_promptset_secondary_topics"},
		"tags":                    {"uniq_tags_name_ci", "idx_tags_assigned_member"},
		"promptset_registrations": {"uniq_registrations_identity_set"},
		"promptset_progress":      {"uniq_progress_identity_set"},
		"promptset_completions":   {"uniq_completions_identity_set"},
		"dashboard_seen":          {"uniq_dashboard_seen_user_role"},
		"badge_drafts":            {"uniq_badge_drafts_token", "ttl_badge_drafts_expires_at"},
	}

	for coll, names := range expected {
		have := indexNames(t, db, coll)
		for _, name := range names {
			if _, ok := have[name]; !ok {
				t.Errorf("expected index %q on %s", name, coll)
			}
		}
	}
}

func TestBadgeDraftsTTL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	idx, ok := indexNames(t, db, "badge_drafts")["ttl_badge_drafts_expires_at"]
	if !ok {
		t.Fatal("TTL index missing")
	}
	if _, ok := idx["expireAfterSeconds"]; !ok {
		t.Error("expected expireAfterSeconds on TTL index")
	}
}

func TestUniqueCompletionPerIdentityAndSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	doc := bson.M{
		"identity":     bson.M{"kind": "member", "id": primitive.NewObjectID()},
		"promptset_id": primitive.NewObjectID(),
		"completed_at": time.Now(),
	}
	coll := db.Collection("promptset_completions")
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc); err == nil {
		t.Error("expected duplicate key error on second completion")
	}
}

func TestUniqueTagName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("tags")
	if _, err := coll.InsertOne(ctx, bson.M{"name": "Focus", "name_ci": "focus"}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"name": "focus", "name_ci": "focus"}); err == nil {
		t.Error("expected duplicate key error for second tag named focus")
	}
}
