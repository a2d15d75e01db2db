package dashboard_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/twennie/twennie/internal/app/features/dashboard"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/features/promptsets"
	"github.com/twennie/twennie/internal/app/system/indexes"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*dashboard.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	logger := zap.NewNop()
	return dashboard.NewHandler(db, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

type tab struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	New   bool   `json:"new"`
}

type dashboardBody struct {
	Kind       string               `json:"kind"`
	OwnedUnits []models.UnitSummary `json:"owned_units"`
	TeamUnits  []models.UnitSummary `json:"team_units"`
	PromptSets promptsets.Overview  `json:"promptsets"`
	Group      *struct {
		RegistrationCode string `json:"registration_code"`
		Members          []struct {
			Name     string `json:"name"`
			InFlight int    `json:"in_flight"`
		} `json:"members"`
	} `json:"group"`
	Tabs []tab `json:"tabs"`
}

func (b dashboardBody) tab(name string) tab {
	for _, t := range b.Tabs {
		if t.Name == name {
			return t
		}
	}
	return tab{}
}

func serve(t *testing.T, h *dashboard.Handler, user testutil.TestUser) dashboardBody {
	t.Helper()
	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/dashboard", user))
	rec.AssertStatus(t, http.StatusOK)
	var body dashboardBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestServeDashboard_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeDashboard(rec, testutil.NewRequest(http.MethodGet, "/dashboard"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeDashboard_SeenBaseline(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	mid := models.Identity{Kind: models.KindMember, ID: m.ID}
	user := testutil.MemberUser(m.ID)

	first := serve(t, h, user)
	if first.Kind != string(models.KindMember) {
		t.Errorf("kind = %q, want member", first.Kind)
	}
	for _, tb := range first.Tabs {
		if tb.New {
			t.Errorf("tab %q flagged on first render", tb.Name)
		}
	}

	ps := fx.CreatePromptSet(ctx, "Listening", mid)
	plan := promptsets.Plan{Frequency: "daily", Target: time.Now().UTC().AddDate(0, 0, 10)}
	if _, err := h.PromptSets.Register(ctx, mid, ps.ID, plan); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	second := serve(t, h, user)
	reg := second.tab(models.TabRegistrations)
	if reg.Count != 1 || !reg.New {
		t.Errorf("registrations tab = %+v, want count 1 flagged", reg)
	}
	if second.tab(models.TabLibrary).New {
		t.Error("library tab flagged without change")
	}
	if len(second.PromptSets.InFlight) != 1 {
		t.Errorf("in flight = %d, want 1", len(second.PromptSets.InFlight))
	}

	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodPost, "/dashboard/seen/registrations", user), "tab", models.TabRegistrations)
	h.MarkSeen(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	third := serve(t, h, user)
	if third.tab(models.TabRegistrations).New {
		t.Error("registrations tab still flagged after MarkSeen")
	}
}

func TestMarkSeen_BeforeFirstRender(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	mid := models.Identity{Kind: models.KindMember, ID: m.ID}
	user := testutil.MemberUser(m.ID)

	fx.CreateArticle(ctx, "Owned", mid, models.UnitStatusInProgress, models.VisibilityAllMembers)
	ps := fx.CreatePromptSet(ctx, "Listening", mid)
	plan := promptsets.Plan{Frequency: "daily", Target: time.Now().UTC().AddDate(0, 0, 10)}
	if _, err := h.PromptSets.Register(ctx, mid, ps.ID, plan); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodPost, "/dashboard/seen/registrations", user), "tab", models.TabRegistrations)
	h.MarkSeen(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	first := serve(t, h, user)
	if first.tab(models.TabLibrary).Count == 0 {
		t.Fatal("library tab count = 0, want the owned article counted")
	}
	for _, tb := range first.Tabs {
		if tb.New {
			t.Errorf("tab %q flagged on first render after MarkSeen", tb.Name)
		}
	}
}

func TestMarkSeen_UnknownTab(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateMember(ctx, "Alice", "Acme")
	rec := testutil.NewRecorder()
	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest(http.MethodPost, "/", testutil.MemberUser(m.ID)), "tab", "inbox")
	h.MarkSeen(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeDashboard_Leader(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateLeader(ctx, "Lee", "Acme", 5)
	gm := fx.CreateGroupMember(ctx, "Gina", leader.ID)
	gmID := models.Identity{Kind: models.KindGroupMember, ID: gm.ID}

	fx.CreateArticle(ctx, "Team note", gmID, models.UnitStatusApproved, models.VisibilityTeam)
	fx.CreateArticle(ctx, "Draft", gmID, models.UnitStatusInProgress, models.VisibilityTeam)

	ps := fx.CreatePromptSet(ctx, "Listening", models.Identity{Kind: models.KindLeader, ID: leader.ID})
	plan := promptsets.Plan{Frequency: "weekly", Target: time.Now().UTC().AddDate(0, 1, 0)}
	if _, err := h.PromptSets.Register(ctx, gmID, ps.ID, plan); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	body := serve(t, h, testutil.LeaderUser(leader.ID))
	if body.Group == nil {
		t.Fatal("leader dashboard has no group")
	}
	if body.Group.RegistrationCode != leader.RegistrationCode {
		t.Errorf("code = %q, want %q", body.Group.RegistrationCode, leader.RegistrationCode)
	}
	if len(body.Group.Members) != 1 || body.Group.Members[0].InFlight != 1 {
		t.Errorf("members = %+v, want Gina with one set in flight", body.Group.Members)
	}
	if len(body.TeamUnits) != 1 || body.TeamUnits[0].Title != "Team note" {
		t.Errorf("team units = %+v, want only the approved team note", body.TeamUnits)
	}
	if body.tab(models.TabGroup).Count != 1 {
		t.Errorf("group tab = %+v, want 1", body.tab(models.TabGroup))
	}
}

func TestServeDashboard_GroupMember(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateLeader(ctx, "Lee", "Acme", 5)
	gm := fx.CreateGroupMember(ctx, "Gina", leader.ID)
	fx.CreateArticle(ctx, "From the leader", models.Identity{Kind: models.KindLeader, ID: leader.ID}, models.UnitStatusApproved, models.VisibilityTeam)
	fx.CreateArticle(ctx, "Other org", models.Identity{Kind: models.KindLeader, ID: fx.CreateLeader(ctx, "Zed", "Globex", 2).ID}, models.UnitStatusApproved, models.VisibilityTeam)

	body := serve(t, h, testutil.GroupMemberUser(gm.ID))
	if body.Group == nil || body.Group.RegistrationCode != "" {
		t.Errorf("group = %+v, want roster without code", body.Group)
	}
	if len(body.TeamUnits) != 1 || body.TeamUnits[0].Title != "From the leader" {
		t.Errorf("team units = %+v, want leader's unit", body.TeamUnits)
	}
}
