package identities_test

import (
	"errors"
	"testing"

	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestResolveAuthor_GroupMemberOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateLeader(ctx, "Lee", "Acme", 5)
	gm := fixtures.CreateGroupMember(ctx, "Gia", leader.ID)
	if _, err := db.Collection("group_members").UpdateOne(ctx,
		bson.M{"_id": gm.ID}, bson.M{"$set": bson.M{"image": "/img/gia.png"}}); err != nil {
		t.Fatalf("set image: %v", err)
	}

	// Legacy author reference without a kind forces the lookup-order path.
	info, err := r.ResolveAuthor(ctx, models.Author{ID: gm.ID})
	if err != nil {
		t.Fatalf("ResolveAuthor failed: %v", err)
	}
	if info.Name != "Gia" {
		t.Errorf("Name = %q, want %q", info.Name, "Gia")
	}
	if info.Image != "/img/gia.png" {
		t.Errorf("Image = %q, want /img/gia.png", info.Image)
	}
	if info.Kind != models.KindGroupMember {
		t.Errorf("Kind = %q, want group_member", info.Kind)
	}
}

func TestResolveAuthor_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	info, err := r.ResolveAuthor(ctx, models.Author{ID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ResolveAuthor failed: %v", err)
	}
	if info.Name != identities.UnknownAuthor {
		t.Errorf("Name = %q, want %q", info.Name, identities.UnknownAuthor)
	}
}

func TestResolveAuthor_KindRecorded(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fixtures.CreateMember(ctx, "Mo", "Acme")
	info, err := r.ResolveAuthor(ctx, models.Author{ID: m.ID, Kind: models.KindMember})
	if err != nil {
		t.Fatalf("ResolveAuthor failed: %v", err)
	}
	if info.Name != "Mo" {
		t.Errorf("Name = %q, want Mo", info.Name)
	}

	// A recorded kind is authoritative: the same id under another kind is unknown.
	info, err = r.ResolveAuthor(ctx, models.Author{ID: m.ID, Kind: models.KindLeader})
	if err != nil {
		t.Fatalf("ResolveAuthor failed: %v", err)
	}
	if info.Name != identities.UnknownAuthor {
		t.Errorf("Name = %q, want unknown", info.Name)
	}
}

func TestLookup_GroupMemberInheritsOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateLeader(ctx, "Lee", "Acme Corp", 3)
	gm := fixtures.CreateGroupMember(ctx, "Gia", leader.ID)

	a, err := r.Lookup(ctx, models.Identity{Kind: models.KindGroupMember, ID: gm.ID})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if a.Organization != "Acme Corp" {
		t.Errorf("Organization = %q, want Acme Corp", a.Organization)
	}
	if !a.InGroup(leader.ID) {
		t.Error("expected group member to be in leader's group")
	}
}

func TestExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fixtures.CreateMember(ctx, "Mo", "")
	ok, err := r.Exists(ctx, models.Identity{Kind: models.KindMember, ID: m.ID})
	if err != nil || !ok {
		t.Errorf("Exists(member) = %v, %v; want true", ok, err)
	}
	ok, err = r.Exists(ctx, models.Identity{Kind: models.KindLeader, ID: m.ID})
	if err != nil || ok {
		t.Errorf("Exists(leader) = %v, %v; want false", ok, err)
	}
}

func TestFetchUser_InactiveIsNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fixtures.CreateMember(ctx, "Mo", "")
	id := models.Identity{Kind: models.KindMember, ID: m.ID}

	u, err := r.FetchUser(ctx, id)
	if err != nil || u == nil {
		t.Fatalf("FetchUser active = %v, %v", u, err)
	}
	if u.Kind != models.KindMember || u.ID != m.ID.Hex() {
		t.Errorf("unexpected session user %+v", u)
	}

	if _, err := db.Collection("members").UpdateOne(ctx,
		bson.M{"_id": m.ID}, bson.M{"$set": bson.M{"status": models.StatusInactive}}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	u, err = r.FetchUser(ctx, id)
	if err != nil {
		t.Fatalf("FetchUser inactive: %v", err)
	}
	if u != nil {
		t.Error("expected nil user for inactive member")
	}
}

func TestFindByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	r := identities.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fixtures.CreateLeader(ctx, "Lee", "Acme", 2)

	a, err := r.FindByEmail(ctx, "  "+leader.Email+" ")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if a.Kind != models.KindLeader || a.ID != leader.ID {
		t.Errorf("got %v, want leader %s", a.Identity, leader.ID.Hex())
	}

	taken, err := r.EmailTaken(ctx, "nobody@example.com")
	if err != nil || taken {
		t.Errorf("EmailTaken(nobody) = %v, %v", taken, err)
	}
}

func TestUpdateProfileAndPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := identities.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateLeader(ctx, "Lee", "Acme", 2)
	gm := fx.CreateGroupMember(ctx, "Ann", leader.ID)
	id := models.Identity{Kind: models.KindGroupMember, ID: gm.ID}

	if err := r.UpdateProfile(ctx, id, "Ann B", "/img/ann.png"); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if err := r.SetPasswordHash(ctx, id, "hash-2"); err != nil {
		t.Fatalf("SetPasswordHash failed: %v", err)
	}
	a, err := r.Lookup(ctx, id)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if a.Name != "Ann B" || a.Image != "/img/ann.png" || a.PasswordHash != "hash-2" {
		t.Errorf("unexpected account after update: %+v", a)
	}

	missing := models.Identity{Kind: models.KindMember, ID: primitive.NewObjectID()}
	if err := r.UpdateProfile(ctx, missing, "X", ""); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("UpdateProfile(missing) error = %v, want ErrNoDocuments", err)
	}
}
