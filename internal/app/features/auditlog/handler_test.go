package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twennie/twennie/internal/app/features/auditlog"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Items []struct {
		EventType string    `json:"event_type"`
		Subject   string    `json:"subject"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"items"`
	Scope      string `json:"scope"`
	TimeZone   string `json:"tz"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"total_pages"`
}

func newTestHandler(t *testing.T) (*auditlog.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return auditlog.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

// seed records a leader sign-up, a member joining the group, and a login
// by an unrelated member.
func seed(t *testing.T, h *auditlog.Handler, fx *testutil.Fixtures) (leader models.Leader, gm models.GroupMember, m models.Member) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader = fx.CreateLeader(ctx, "Lee", "Acme", 3)
	gm = fx.CreateGroupMember(ctx, "Ann", leader.ID)
	m = fx.CreateMember(ctx, "Zed", "Other")

	leaderID := models.Identity{Kind: models.KindLeader, ID: leader.ID}
	gmID := models.Identity{Kind: models.KindGroupMember, ID: gm.ID}
	mID := models.Identity{Kind: models.KindMember, ID: m.ID}
	base := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, e := range []audit.Event{
		{Timestamp: base, Category: audit.CategoryAccount, EventType: audit.EventLeaderSignedUp, Identity: &leaderID, GroupID: &leader.ID, Success: true},
		{Timestamp: base.Add(time.Hour), Category: audit.CategoryAccount, EventType: audit.EventGroupMemberJoined, Identity: &gmID, GroupID: &leader.ID, Success: true},
		{Timestamp: base.Add(2 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Identity: &leaderID, Success: true},
		{Timestamp: base.Add(3 * time.Hour), Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, Identity: &mID, Success: true},
	} {
		require.NoError(t, h.Events.Log(ctx, e))
	}
	return leader, gm, m
}

func TestServeList_OwnEventsOnly(t *testing.T) {
	h, fx := newTestHandler(t)
	_, _, m := seed(t, h, fx)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/activity", testutil.MemberUser(m.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var body listBody
	rec.DecodeJSON(t, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, audit.EventLoginSuccess, body.Items[0].EventType)
	assert.Equal(t, "Zed", body.Items[0].Subject)
	assert.Equal(t, "self", body.Scope)
	assert.Equal(t, int64(1), body.Total)
	assert.Equal(t, 1, body.TotalPages)
}

func TestServeList_LeaderGroupScope(t *testing.T) {
	h, fx := newTestHandler(t)
	leader, _, _ := seed(t, h, fx)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/activity?scope=group", testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var body listBody
	rec.DecodeJSON(t, &body)
	require.Len(t, body.Items, 2)
	// Newest first.
	assert.Equal(t, audit.EventGroupMemberJoined, body.Items[0].EventType)
	assert.Equal(t, "Ann", body.Items[0].Subject)
	assert.Equal(t, audit.EventLeaderSignedUp, body.Items[1].EventType)
}

func TestServeList_GroupScopeLeadersOnly(t *testing.T) {
	h, fx := newTestHandler(t)
	_, gm, _ := seed(t, h, fx)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/activity?scope=group", testutil.GroupMemberUser(gm.ID)))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeList_CategoryAndDateFilters(t *testing.T) {
	h, fx := newTestHandler(t)
	leader, _, _ := seed(t, h, fx)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/activity?category=auth", testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	rec.DecodeJSON(t, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, audit.EventLoginSuccess, body.Items[0].EventType)

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/activity?start_date=2030-05-02", testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusOK)
	body = listBody{}
	rec.DecodeJSON(t, &body)
	assert.Empty(t, body.Items)
}

func TestServeList_TimeZone(t *testing.T) {
	h, fx := newTestHandler(t)
	_, _, m := seed(t, h, fx)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/activity?tz=America/Chicago", testutil.MemberUser(m.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "-05:00")

	var body listBody
	rec.DecodeJSON(t, &body)
	assert.Equal(t, "America/Chicago", body.TimeZone)
}

func TestServeList_BadFilters(t *testing.T) {
	h, _ := newTestHandler(t)
	u := testutil.MemberUser(primitive.NewObjectID())

	for _, target := range []string{
		"/activity?category=billing",
		"/activity?tz=Mars/Olympus",
		"/activity?start_date=May+1",
		"/activity?scope=everyone",
	} {
		rec := testutil.NewRecorder()
		h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, target, u))
		rec.AssertStatus(t, http.StatusBadRequest)
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/activity"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}
