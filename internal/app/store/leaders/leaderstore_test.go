package leaderstore_test

import (
	"errors"
	"testing"

	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	"github.com/twennie/twennie/internal/app/system/indexes"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
)

func TestNewRegistrationCode(t *testing.T) {
	code := leaderstore.NewRegistrationCode()
	if len(code) != 8 {
		t.Fatalf("len(code) = %d, want 8", len(code))
	}
	for _, r := range code {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			t.Errorf("unexpected rune %q in %q", r, code)
		}
	}
}

func TestCreate_AndLookupByCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := leaderstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	l, err := store.Create(ctx, models.Leader{
		Name:         "Lee",
		Email:        "Lee@Example.com",
		PasswordHash: "x",
		Organization: "Acme",
		GroupName:    "Crew",
		GroupSize:    4,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if l.RegistrationCode == "" {
		t.Fatal("expected registration code")
	}

	got, err := store.GetByCode(ctx, " "+l.RegistrationCode+" ")
	if err != nil {
		t.Fatalf("GetByCode failed: %v", err)
	}
	if got.ID != l.ID {
		t.Errorf("GetByCode returned %s, want %s", got.ID.Hex(), l.ID.Hex())
	}

	_, err = store.Create(ctx, models.Leader{Name: "Dup", Email: "lee@example.com", PasswordHash: "x", GroupSize: 1})
	if !errors.Is(err, leaderstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCreate_RejectsGroupSize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := leaderstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, size := range []int{0, 11} {
		_, err := store.Create(ctx, models.Leader{Name: "L", Email: "l@example.com", GroupSize: size})
		if !errors.Is(err, leaderstore.ErrBadGroupSize) {
			t.Errorf("size %d: expected ErrBadGroupSize, got %v", size, err)
		}
	}
}

func TestRegenerateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := leaderstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := fixtures.CreateLeader(ctx, "Lee", "Acme", 3)
	code, err := store.RegenerateCode(ctx, l.ID)
	if err != nil {
		t.Fatalf("RegenerateCode failed: %v", err)
	}
	if code == l.RegistrationCode {
		t.Error("expected a new code")
	}
	if _, err := store.GetByCode(ctx, l.RegistrationCode); err == nil {
		t.Error("old code should no longer resolve")
	}
}
