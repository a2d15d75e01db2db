package profile_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/features/profile"
	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/authutil"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures) {
	h, fx, _ := newAuditedHandler(t)
	return h, fx
}

func newAuditedHandler(t *testing.T) (*profile.Handler, *testutil.Fixtures, *audit.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	events := audit.New(db)
	al := auditlog.New(events, logger, auditlog.Config{Account: auditlog.ToDB})
	return profile.NewHandler(db, al, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db), events
}

func TestServeProfile_GroupMemberInheritsOrganization(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	leader := fx.CreateLeader(ctx, "Lee", "Acme", 3)
	gm := fx.CreateGroupMember(ctx, "Ann", leader.ID)

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", testutil.GroupMemberUser(gm.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var got map[string]any
	rec.DecodeJSON(t, &got)
	assert.Equal(t, "group_member", got["kind"])
	assert.Equal(t, "Ann", got["name"])
	assert.Equal(t, "Acme", got["organization"])
}

func TestServeProfile_MissingAccount(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", testutil.MemberUser(primitive.NewObjectID())))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestUpdateProfile(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Zed", "Acme")

	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, "/profile", map[string]string{
		"name":  "  Zed   Smith ",
		"image": "/img/zed.png",
	}), testutil.MemberUser(m.ID))
	rec := testutil.NewRecorder()
	h.HandleUpdateProfile(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	a, err := h.Accounts.Lookup(ctx, models.Identity{Kind: models.KindMember, ID: m.ID})
	require.NoError(t, err)
	assert.Equal(t, "Zed Smith", a.Name)
	assert.Equal(t, "/img/zed.png", a.Image)
}

func TestUpdateProfile_Validation(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Zed", "Acme")

	req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPut, "/profile", map[string]string{
		"name":  "",
		"image": "http://insecure.example.com/a.png",
	}), testutil.MemberUser(m.ID))
	rec := testutil.NewRecorder()
	h.HandleUpdateProfile(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Name")
	rec.AssertContains(t, "Image")
}

func TestChangePassword(t *testing.T) {
	h, fx, events := newAuditedHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	leader := fx.CreateLeader(ctx, "Lee", "Acme", 3)
	id := models.Identity{Kind: models.KindLeader, ID: leader.ID}
	fx.SetPassword(ctx, id, "old-password")

	// Wrong current password.
	rec := testutil.NewRecorder()
	h.HandleChangePassword(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/profile/password", map[string]string{
		"current_password": "not-it",
		"new_password":     "new-password",
	}), testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.HandleChangePassword(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/profile/password", map[string]string{
		"current_password": "old-password",
		"new_password":     "new-password",
	}), testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusNoContent)

	a, err := h.Accounts.Lookup(ctx, id)
	require.NoError(t, err)
	assert.True(t, authutil.CheckPassword(a.PasswordHash, "new-password"))
	assert.False(t, authutil.CheckPassword(a.PasswordHash, "old-password"))

	got, err := events.Query(ctx, audit.QueryFilter{EventType: audit.EventPasswordChanged})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, *got[0].Identity)
}

func TestChangePassword_TooShort(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Zed", "Acme")
	fx.SetPassword(ctx, models.Identity{Kind: models.KindMember, ID: m.ID}, "old-password")

	rec := testutil.NewRecorder()
	h.HandleChangePassword(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/profile/password", map[string]string{
		"current_password": "old-password",
		"new_password":     "short",
	}), testutil.MemberUser(m.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)
}
