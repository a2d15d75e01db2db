package progressstore_test

import (
	"errors"
	"testing"
	"time"

	completionstore "github.com/twennie/twennie/internal/app/store/completions"
	progressstore "github.com/twennie/twennie/internal/app/store/progress"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsure_DoesNotReset(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := models.Identity{Kind: models.KindMember, ID: primitive.NewObjectID()}
	ps := primitive.NewObjectID()

	if created, err := store.Ensure(ctx, id, ps, 1); err != nil || !created {
		t.Fatalf("Ensure = %v, %v", created, err)
	}
	if _, err := store.RecordNote(ctx, id, ps, 1, "first"); err != nil {
		t.Fatalf("RecordNote failed: %v", err)
	}
	if created, err := store.Ensure(ctx, id, ps, 0); err != nil || created {
		t.Fatalf("second Ensure = %v, %v", created, err)
	}

	p, err := store.Get(ctx, id, ps)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.CurrentPromptIndex != 2 {
		t.Errorf("cursor = %d, want 2", p.CurrentPromptIndex)
	}
}

func TestRecordNote_Monotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := models.Identity{Kind: models.KindGroupMember, ID: primitive.NewObjectID()}
	ps := primitive.NewObjectID()
	if _, err := store.Ensure(ctx, id, ps, 1); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	last := 1
	for i := 1; i <= 5; i++ {
		p, err := store.RecordNote(ctx, id, ps, last, "note")
		if err != nil {
			t.Fatalf("RecordNote %d failed: %v", i, err)
		}
		if p.CurrentPromptIndex < last {
			t.Fatalf("cursor went backwards: %d < %d", p.CurrentPromptIndex, last)
		}
		if len(p.CompletedPrompts) != i || len(p.Notes) != i {
			t.Fatalf("after %d submissions: completed=%d notes=%d", i, len(p.CompletedPrompts), len(p.Notes))
		}
		last = p.CurrentPromptIndex
	}

	// Resubmitting an old cursor is rejected rather than double counted.
	if _, err := store.RecordNote(ctx, id, ps, 3, "again"); !errors.Is(err, progressstore.ErrStale) {
		t.Errorf("stale submit: got %v, want ErrStale", err)
	}
}

func TestAdvanceFromIntro(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := models.Identity{Kind: models.KindMember, ID: primitive.NewObjectID()}
	ps := primitive.NewObjectID()
	if _, err := store.Ensure(ctx, id, ps, 0); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	moved, err := store.AdvanceFromIntro(ctx, id, ps)
	if err != nil || !moved {
		t.Fatalf("AdvanceFromIntro = %v, %v", moved, err)
	}
	moved, err = store.AdvanceFromIntro(ctx, id, ps)
	if err != nil || moved {
		t.Fatalf("second AdvanceFromIntro = %v, %v", moved, err)
	}
}

func TestDeleteShadowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := progressstore.New(db)
	completions := completionstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := models.Identity{Kind: models.KindMember, ID: primitive.NewObjectID()}
	done, open := primitive.NewObjectID(), primitive.NewObjectID()
	for _, ps := range []primitive.ObjectID{done, open} {
		if _, err := store.Ensure(ctx, id, ps, 1); err != nil {
			t.Fatalf("Ensure failed: %v", err)
		}
	}
	if _, err := completions.Record(ctx, models.PromptSetCompletion{
		Identity: id, PromptSetID: done, CompletedAt: time.Now(),
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	n, err := store.DeleteShadowed(ctx)
	if err != nil {
		t.Fatalf("DeleteShadowed failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	rows, err := store.ListByIdentity(ctx, id)
	if err != nil {
		t.Fatalf("ListByIdentity failed: %v", err)
	}
	if len(rows) != 1 || rows[0].PromptSetID != open {
		t.Errorf("remaining progress = %+v", rows)
	}
}
