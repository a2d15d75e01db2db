package tags_test

import (
	"errors"
	"testing"

	"github.com/twennie/twennie/internal/app/features/tags"
	"github.com/twennie/twennie/internal/app/system/indexes"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupEngine(t *testing.T) (*tags.Engine, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return tags.NewEngine(db), testutil.NewFixtures(t, db)
}

func memberIdentity(m models.Member) models.Identity {
	return models.Identity{Kind: models.KindMember, ID: m.ID}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"focus", "focus"},
		{"  deep   work ", "deep work"},
		{"Team\tGoals", "Team Goals"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := tags.NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateTag_SameNameTwiceSharesOneTag(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alice := fx.CreateMember(ctx, "Alice", "Acme")
	bob := fx.CreateMember(ctx, "Bob", "Acme")
	article := fx.CreateArticle(ctx, "Listening", memberIdentity(alice), models.UnitStatusApproved, models.VisibilityAllMembers)

	in := tags.CreateInput{Name: "focus", ItemID: article.ID, ItemType: models.UnitArticle, Creator: memberIdentity(alice)}
	first, err := engine.CreateTag(ctx, in)
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if !first.Created {
		t.Error("first CreateTag should create the tag")
	}

	in.Creator = memberIdentity(bob)
	second, err := engine.CreateTag(ctx, in)
	if err != nil {
		t.Fatalf("second CreateTag failed: %v", err)
	}
	if second.Created {
		t.Error("second CreateTag should reuse the tag")
	}
	if second.Tag.ID != first.Tag.ID {
		t.Errorf("tag ids differ: %s vs %s", first.Tag.ID.Hex(), second.Tag.ID.Hex())
	}
	if len(second.Tag.AssociatedUnits) != 1 {
		t.Errorf("associated units = %d, want 1", len(second.Tag.AssociatedUnits))
	}
	if second.Tag.Creator() != memberIdentity(alice) {
		t.Errorf("creator = %v, want first creator", second.Tag.Creator())
	}
}

func TestCreateTag_Topic(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	res, err := engine.CreateTag(ctx, tags.CreateInput{Name: "later", Topic: "Leadership", Creator: memberIdentity(m)})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if len(res.Tag.AssociatedTopics) != 1 || res.Tag.AssociatedTopics[0] != "leadership" {
		t.Errorf("topics = %v, want [leadership]", res.Tag.AssociatedTopics)
	}
}

func TestCreateTag_Validation(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")

	tests := []struct {
		name string
		in   tags.CreateInput
	}{
		{"missing name", tags.CreateInput{ItemID: primitive.NewObjectID(), ItemType: models.UnitArticle}},
		{"missing item and topic", tags.CreateInput{Name: "x"}},
		{"missing item type", tags.CreateInput{Name: "x", ItemID: primitive.NewObjectID()}},
		{"bad item type", tags.CreateInput{Name: "x", ItemID: primitive.NewObjectID(), ItemType: "podcast"}},
		{"unknown topic", tags.CreateInput{Name: "x", Topic: "astrology"}},
		{"unit does not exist", tags.CreateInput{Name: "x", ItemID: primitive.NewObjectID(), ItemType: models.UnitVideo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Creator = memberIdentity(m)
			_, err := engine.CreateTag(ctx, tt.in)
			var ve *tags.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if len(ve.Problems) == 0 {
				t.Error("ValidationError has no problems")
			}
		})
	}
}

func TestCreateTag_UnknownCreatorForbidden(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	article := fx.CreateArticle(ctx, "A", memberIdentity(m), models.UnitStatusApproved, models.VisibilityAllMembers)

	ghost := models.Identity{Kind: models.KindMember, ID: primitive.NewObjectID()}
	_, err := engine.CreateTag(ctx, tags.CreateInput{Name: "x", ItemID: article.ID, ItemType: models.UnitArticle, Creator: ghost})
	if !errors.Is(err, tags.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestCreateTag_Assignments(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateLeader(ctx, "Lee", "Acme", 5)
	gm := fx.CreateGroupMember(ctx, "Gina", leader.ID)
	outsider := fx.CreateGroupMember(ctx, "Otto", fx.CreateLeader(ctx, "Other", "Acme", 5).ID)
	leaderID := models.Identity{Kind: models.KindLeader, ID: leader.ID}
	article := fx.CreateArticle(ctx, "A", leaderID, models.UnitStatusApproved, models.VisibilityAllMembers)

	res, err := engine.CreateTag(ctx, tags.CreateInput{
		Name: "read this", ItemID: article.ID, ItemType: models.UnitArticle, Creator: leaderID,
		Assignments: []tags.AssignmentInput{{MemberID: gm.ID, Instructions: "<b>Before Friday</b>"}},
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if len(res.Assigned) != 1 || res.Assigned[0] != gm.ID {
		t.Fatalf("assigned = %v, want [%s]", res.Assigned, gm.ID.Hex())
	}
	a, ok := res.Tag.AssignmentFor(gm.ID)
	if !ok {
		t.Fatal("assignment missing from tag")
	}
	if a.Instructions != "Before Friday" {
		t.Errorf("instructions = %q, want sanitized text", a.Instructions)
	}

	_, err = engine.CreateTag(ctx, tags.CreateInput{
		Name: "read this", ItemID: article.ID, ItemType: models.UnitArticle, Creator: leaderID,
		Assignments: []tags.AssignmentInput{{MemberID: outsider.ID}},
	})
	var ve *tags.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("assigning outside the group: err = %v, want ValidationError", err)
	}

	// Only leaders may assign.
	member := fx.CreateMember(ctx, "Max", "Acme")
	_, err = engine.CreateTag(ctx, tags.CreateInput{
		Name: "read this", ItemID: article.ID, ItemType: models.UnitArticle, Creator: memberIdentity(member),
		Assignments: []tags.AssignmentInput{{MemberID: gm.ID}},
	})
	if !errors.Is(err, tags.ErrForbidden) {
		t.Errorf("member assigning: err = %v, want ErrForbidden", err)
	}
}

func TestRemoveTag_DeletesWhenEmpty(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	a1 := fx.CreateArticle(ctx, "One", memberIdentity(m), models.UnitStatusApproved, models.VisibilityAllMembers)
	a2 := fx.CreateArticle(ctx, "Two", memberIdentity(m), models.UnitStatusApproved, models.VisibilityAllMembers)

	for _, a := range []models.Article{a1, a2} {
		if _, err := engine.CreateTag(ctx, tags.CreateInput{Name: "keep", ItemID: a.ID, ItemType: models.UnitArticle, Creator: memberIdentity(m)}); err != nil {
			t.Fatalf("CreateTag failed: %v", err)
		}
	}

	deleted, err := engine.RemoveTag(ctx, tags.RemoveInput{Name: "keep", ItemID: a1.ID, ItemType: models.UnitArticle, Actor: memberIdentity(m)})
	if err != nil {
		t.Fatalf("RemoveTag failed: %v", err)
	}
	if deleted {
		t.Error("tag deleted while another unit remains")
	}

	deleted, err = engine.RemoveTag(ctx, tags.RemoveInput{Name: "keep", ItemID: a2.ID, ItemType: models.UnitArticle, Actor: memberIdentity(m)})
	if err != nil {
		t.Fatalf("RemoveTag failed: %v", err)
	}
	if !deleted {
		t.Error("tag should be deleted once empty")
	}
	if _, err := engine.Tags.GetByName(ctx, "keep"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByName after delete: err = %v, want ErrNoDocuments", err)
	}
}

func TestRemoveTag_GroupMemberNotCreatorForbidden(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	leader := fx.CreateLeader(ctx, "Lee", "Acme", 3)
	gm := fx.CreateGroupMember(ctx, "Gina", leader.ID)
	article := fx.CreateArticle(ctx, "A", memberIdentity(m), models.UnitStatusApproved, models.VisibilityAllMembers)

	if _, err := engine.CreateTag(ctx, tags.CreateInput{Name: "mine", ItemID: article.ID, ItemType: models.UnitArticle, Creator: memberIdentity(m)}); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	_, err := engine.RemoveTag(ctx, tags.RemoveInput{
		Name: "mine", ItemID: article.ID, ItemType: models.UnitArticle,
		Actor: models.Identity{Kind: models.KindGroupMember, ID: gm.ID},
	})
	if !errors.Is(err, tags.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestRemoveTag_Missing(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	_, err := engine.RemoveTag(ctx, tags.RemoveInput{Name: "nope", Topic: "leadership", Actor: memberIdentity(m)})
	if !errors.Is(err, tags.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUnassignAndComplete(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateLeader(ctx, "Lee", "Acme", 5)
	other := fx.CreateLeader(ctx, "Other", "Acme", 5)
	g1 := fx.CreateGroupMember(ctx, "Gina", leader.ID)
	g2 := fx.CreateGroupMember(ctx, "Gus", leader.ID)
	leaderID := models.Identity{Kind: models.KindLeader, ID: leader.ID}

	_, err := engine.CreateTag(ctx, tags.CreateInput{
		Name: "weekly", Topic: "communication", Creator: leaderID,
		Assignments: []tags.AssignmentInput{{MemberID: g1.ID}, {MemberID: g2.ID}},
	})
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	g1ID := models.Identity{Kind: models.KindGroupMember, ID: g1.ID}
	if err := engine.CompleteAssignment(ctx, g1ID, "weekly"); err != nil {
		t.Fatalf("CompleteAssignment failed: %v", err)
	}
	if err := engine.CompleteAssignment(ctx, g1ID, "weekly"); !errors.Is(err, tags.ErrNotFound) {
		t.Errorf("second CompleteAssignment: err = %v, want ErrNotFound", err)
	}

	listing, err := engine.ListForIdentity(ctx, g1ID)
	if err != nil {
		t.Fatalf("ListForIdentity failed: %v", err)
	}
	if len(listing.Assigned) != 1 || listing.Assigned[0].Assignment.CompletedAt == nil {
		t.Errorf("assigned listing = %+v, want one completed entry", listing.Assigned)
	}

	if _, err := engine.Unassign(ctx, models.Identity{Kind: models.KindLeader, ID: other.ID}, "weekly", g2.ID); !errors.Is(err, tags.ErrForbidden) {
		t.Errorf("Unassign by another leader: err = %v, want ErrForbidden", err)
	}
	deleted, err := engine.Unassign(ctx, leaderID, "weekly", g2.ID)
	if err != nil {
		t.Fatalf("Unassign failed: %v", err)
	}
	if deleted {
		t.Error("tag still holds a topic and should survive")
	}
}

func TestUnassign_OnAnotherLeadersTag(t *testing.T) {
	engine, fx := setupEngine(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fx.CreateLeader(ctx, "Ada", "Acme", 5)
	other := fx.CreateLeader(ctx, "Ben", "Acme", 5)
	bMember := fx.CreateGroupMember(ctx, "Bea", other.ID)
	ownerID := models.Identity{Kind: models.KindLeader, ID: owner.ID}
	otherID := models.Identity{Kind: models.KindLeader, ID: other.ID}

	if _, err := engine.CreateTag(ctx, tags.CreateInput{Name: "urgent", Topic: "feedback", Creator: ownerID}); err != nil {
		t.Fatalf("CreateTag by owner failed: %v", err)
	}
	res, err := engine.CreateTag(ctx, tags.CreateInput{
		Name: "Urgent", Topic: "feedback", Creator: otherID,
		Assignments: []tags.AssignmentInput{{MemberID: bMember.ID}},
	})
	if err != nil {
		t.Fatalf("CreateTag by second leader failed: %v", err)
	}
	if res.Created {
		t.Fatal("second leader created a new tag; want the shared one")
	}

	if _, err := engine.Unassign(ctx, ownerID, "urgent", bMember.ID); !errors.Is(err, tags.ErrForbidden) {
		t.Errorf("Unassign by tag creator outside the group: err = %v, want ErrForbidden", err)
	}
	if _, err := engine.Unassign(ctx, otherID, "urgent", bMember.ID); err != nil {
		t.Fatalf("Unassign by the member's leader failed: %v", err)
	}

	listing, err := engine.ListForIdentity(ctx, models.Identity{Kind: models.KindGroupMember, ID: bMember.ID})
	if err != nil {
		t.Fatalf("ListForIdentity failed: %v", err)
	}
	if len(listing.Assigned) != 0 {
		t.Errorf("assigned = %+v, want none", listing.Assigned)
	}
}
