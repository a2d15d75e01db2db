package library_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/features/library"
	"github.com/twennie/twennie/internal/app/policy/approverpolicy"
	"github.com/twennie/twennie/internal/domain/models"
	"github.com/twennie/twennie/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const approverEmail = "editor@example.com"

func newTestHandler(t *testing.T) (*library.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := library.NewHandler(db, approverpolicy.New([]string{approverEmail}), uierrors.NewErrorLogger(logger), logger)
	return h, testutil.NewFixtures(t, db)
}

func withUnit(r *http.Request, kind models.UnitKind, id string) *http.Request {
	r = testutil.WithChiURLParam(r, "kind", string(kind))
	return testutil.WithChiURLParam(r, "id", id)
}

func prompts(n int) []models.Prompt {
	out := make([]models.Prompt, n)
	for i := range out {
		out[i] = models.Prompt{Headline: "Day", Text: "<p>Reflect.</p>"}
	}
	return out
}

func TestCreate_Article(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Ann", "Acme")

	req := testutil.NewJSONRequest(http.MethodPost, "/library/article", map[string]any{
		"title":            "Listening <b>well</b>",
		"main_topic":       "Communication",
		"secondary_topics": []string{"feedback"},
		"visibility":       "all_members",
		"content":          `<p>Hello</p><script>alert(1)</script>`,
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.MemberUser(m.ID)), "kind", "article")
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var a models.Article
	rec.DecodeJSON(t, &a)
	if a.Author.ID != m.ID || a.Author.Kind != models.KindMember {
		t.Errorf("author = %+v, want member %s", a.Author, m.ID.Hex())
	}
	if a.Status != models.UnitStatusInProgress {
		t.Errorf("status = %q, want in progress", a.Status)
	}
	if a.ArticleTitle != "Listening well" {
		t.Errorf("title = %q, want tags stripped", a.ArticleTitle)
	}
	if a.MainTopic != "communication" {
		t.Errorf("main topic = %q, want normalized", a.MainTopic)
	}
	if strings.Contains(a.Content, "script") {
		t.Errorf("content not sanitized: %q", a.Content)
	}
}

func TestCreate_Validation(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Ann", "Acme")

	req := testutil.NewJSONRequest(http.MethodPost, "/library/video", map[string]any{
		"main_topic": "astrology",
		"visibility": "everyone",
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.MemberUser(m.ID)), "kind", "video")
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Title is required.")
	rec.AssertContains(t, "Main topic is not a known topic.")
	rec.AssertContains(t, "Visibility must be one of")
	rec.AssertContains(t, "Video URL is required.")
}

func TestCreate_UnknownKind(t *testing.T) {
	h, _ := newTestHandler(t)
	req := testutil.NewJSONRequest(http.MethodPost, "/library/podcast", map[string]any{})
	req = testutil.WithChiURLParam(req, "kind", "podcast")
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestCreate_PromptSetFromBadgeDraft(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	l := fx.CreateLeader(ctx, "Lee", "Acme", 3)
	me := models.Identity{Kind: models.KindLeader, ID: l.ID}

	d, err := h.Drafts.Create(ctx, me, models.Badge{Image: "/badges/owl.png", Name: "Owl"}, time.Minute)
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	req := testutil.NewJSONRequest(http.MethodPost, "/library/promptset", map[string]any{
		"title":               "Three weeks of feedback",
		"main_topic":          "feedback",
		"visibility":          "team_only",
		"purpose":             "Practice giving feedback.",
		"suggested_frequency": "daily",
		"badge_token":         d.Token,
		"prompts":             prompts(models.PromptCount),
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.LeaderUser(l.ID)), "kind", "promptset")
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var ps models.PromptSet
	rec.DecodeJSON(t, &ps)
	if ps.Badge.Name != "Owl" {
		t.Errorf("badge = %+v, want draft badge", ps.Badge)
	}
	if _, err := h.Drafts.Get(ctx, me, d.Token); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("draft still present after use: %v", err)
	}
}

func TestCreate_PromptSetNeedsEveryPrompt(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	m := fx.CreateMember(ctx, "Ann", "Acme")

	req := testutil.NewJSONRequest(http.MethodPost, "/library/promptset", map[string]any{
		"title":               "Short set",
		"main_topic":          "feedback",
		"visibility":          "all_members",
		"purpose":             "p",
		"suggested_frequency": "daily",
		"badge":               map[string]string{"image": "/b.png", "name": "B"},
		"prompts":             prompts(5),
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.MemberUser(m.ID)), "kind", "promptset")
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "exactly 21 prompts")
}

func TestView_Visibility(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateLeader(ctx, "Lee", "Acme", 3)
	teammate := fx.CreateGroupMember(ctx, "Gus", leader.ID)
	orgmate := fx.CreateMember(ctx, "Ann", "ACME")
	stranger := fx.CreateMember(ctx, "Sam", "Globex")
	leaderID := models.Identity{Kind: models.KindLeader, ID: leader.ID}

	team := fx.CreateArticle(ctx, "Team notes", leaderID, models.UnitStatusApproved, models.VisibilityTeam)
	org := fx.CreateArticle(ctx, "Org notes", leaderID, models.UnitStatusApproved, models.VisibilityOrganization)
	draft := fx.CreateArticle(ctx, "Draft", leaderID, models.UnitStatusInProgress, models.VisibilityAllMembers)

	tests := []struct {
		name       string
		unit       models.Article
		user       *testutil.TestUser
		wantStatus int
		wantBody   bool
	}{
		{"visitor sees metadata", team, nil, http.StatusOK, false},
		{"teammate reads team unit", team, ptr(testutil.GroupMemberUser(teammate.ID)), http.StatusOK, true},
		{"org member misses team unit", team, ptr(testutil.MemberUser(orgmate.ID)), http.StatusOK, false},
		{"org member reads org unit", org, ptr(testutil.MemberUser(orgmate.ID)), http.StatusOK, true},
		{"group member inherits org", org, ptr(testutil.GroupMemberUser(teammate.ID)), http.StatusOK, true},
		{"stranger misses org unit", org, ptr(testutil.MemberUser(stranger.ID)), http.StatusOK, false},
		{"author reads draft", draft, ptr(testutil.LeaderUser(leader.ID)), http.StatusOK, true},
		{"draft hidden from others", draft, ptr(testutil.MemberUser(stranger.ID)), http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUnit(testutil.NewRequest(http.MethodGet, "/"), models.UnitArticle, tt.unit.ID.Hex())
			if tt.user != nil {
				req = testutil.WithUser(req, *tt.user)
			}
			rec := testutil.NewRecorder()
			h.View(rec, req)
			rec.AssertStatus(t, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got struct {
				Unit        map[string]any `json:"unit"`
				Author      struct{ Name string }
				BodyVisible bool `json:"body_visible"`
			}
			rec.DecodeJSON(t, &got)
			if got.BodyVisible != tt.wantBody {
				t.Errorf("body_visible = %v, want %v", got.BodyVisible, tt.wantBody)
			}
			_, hasContent := got.Unit["content"]
			if hasContent != tt.wantBody {
				t.Errorf("content present = %v, want %v", hasContent, tt.wantBody)
			}
			if got.Author.Name != "Lee" {
				t.Errorf("author = %q, want Lee", got.Author.Name)
			}
		})
	}
}

func ptr(u testutil.TestUser) *testutil.TestUser { return &u }

func TestView_UpcomingIsAuthorOnly(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := fx.CreateMember(ctx, "Ann", "Acme")
	other := fx.CreateMember(ctx, "Sam", "Acme")

	req := testutil.NewJSONRequest(http.MethodPost, "/library/upcoming", map[string]any{
		"title":         "Coming soon",
		"main_topic":    "strategy",
		"visibility":    "all_members",
		"unit_type":     "article",
		"expected_date": "2030-01-15",
	})
	req = testutil.WithChiURLParam(testutil.WithUser(req, testutil.MemberUser(author.ID)), "kind", "upcoming")
	rec := testutil.NewRecorder()
	h.Create(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
	var up models.Upcoming
	rec.DecodeJSON(t, &up)

	rec = testutil.NewRecorder()
	h.View(rec, testutil.WithUser(withUnit(testutil.NewRequest(http.MethodGet, "/"), models.UnitUpcoming, up.ID.Hex()), testutil.MemberUser(other.ID)))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.Submit(rec, testutil.WithUser(withUnit(testutil.NewRequest(http.MethodPost, "/"), models.UnitUpcoming, up.ID.Hex()), testutil.MemberUser(author.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.Mine(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/library/mine"), testutil.MemberUser(author.ID)))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Coming soon")
}

func TestApprovalFlow(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := fx.CreateMember(ctx, "Ann", "Acme")
	authorUser := testutil.MemberUser(author.ID)
	a := fx.CreateArticle(ctx, "Delegating", models.Identity{Kind: models.KindMember, ID: author.ID},
		models.UnitStatusInProgress, models.VisibilityAllMembers)

	approver := testutil.MemberUser(fx.CreateMember(ctx, "Eve", "Acme").ID)
	approver.Email = approverEmail
	outsider := testutil.MemberUser(fx.CreateMember(ctx, "Sam", "Acme").ID)

	call := func(fn http.HandlerFunc, user testutil.TestUser) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		fn(rec, testutil.WithUser(withUnit(testutil.NewRequest(http.MethodPost, "/"), models.UnitArticle, a.ID.Hex()), user))
		return rec
	}

	call(h.Submit, outsider).AssertStatus(t, http.StatusForbidden)
	call(h.Approve, approver).AssertStatus(t, http.StatusConflict)
	call(h.Submit, authorUser).AssertStatus(t, http.StatusOK)
	call(h.Submit, authorUser).AssertStatus(t, http.StatusConflict)

	rec := testutil.NewRecorder()
	h.Review(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/library/review"), approver))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Delegating")

	call(h.Approve, outsider).AssertStatus(t, http.StatusForbidden)
	call(h.Approve, approver).AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.ByTopic(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "topic", "communication"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Delegating")
}

func TestReject_ReturnsToAuthor(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := fx.CreateMember(ctx, "Ann", "Acme")
	a := fx.CreateArticle(ctx, "Rough", models.Identity{Kind: models.KindMember, ID: author.ID},
		models.UnitStatusSubmitted, models.VisibilityAllMembers)
	approver := testutil.MemberUser(author.ID)
	approver.Email = approverEmail

	rec := testutil.NewRecorder()
	h.Reject(rec, testutil.WithUser(withUnit(testutil.NewRequest(http.MethodPost, "/"), models.UnitArticle, a.ID.Hex()), approver))
	rec.AssertStatus(t, http.StatusOK)

	u, err := h.Units.Get(ctx, models.UnitArticle, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Base().Status != models.UnitStatusInProgress {
		t.Errorf("status = %q, want in progress", u.Base().Status)
	}
}

func TestUpdate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := fx.CreateMember(ctx, "Ann", "Acme")
	other := fx.CreateMember(ctx, "Sam", "Acme")
	a := fx.CreateArticle(ctx, "Old title", models.Identity{Kind: models.KindMember, ID: author.ID},
		models.UnitStatusApproved, models.VisibilityAllMembers)

	body := map[string]any{
		"title":      "New title",
		"main_topic": "leadership",
		"visibility": "organization_only",
		"content":    "<p>Rewritten</p>",
	}

	rec := testutil.NewRecorder()
	h.Update(rec, testutil.WithUser(withUnit(testutil.NewJSONRequest(http.MethodPut, "/", body), models.UnitArticle, a.ID.Hex()), testutil.MemberUser(other.ID)))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = testutil.NewRecorder()
	h.Update(rec, testutil.WithUser(withUnit(testutil.NewJSONRequest(http.MethodPut, "/", body), models.UnitArticle, a.ID.Hex()), testutil.MemberUser(author.ID)))
	rec.AssertStatus(t, http.StatusOK)

	var got models.Article
	rec.DecodeJSON(t, &got)
	if got.ArticleTitle != "New title" || got.Visibility != models.VisibilityOrganization {
		t.Errorf("unexpected article %+v", got)
	}
	if got.Status != models.UnitStatusInProgress {
		t.Errorf("status = %q, want edit to reopen the unit", got.Status)
	}
}

func TestApprovedPromptSetIsLocked(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := fx.CreateMember(ctx, "Ann", "Acme")
	ps := fx.CreatePromptSet(ctx, "Locked", models.Identity{Kind: models.KindMember, ID: author.ID})

	rec := testutil.NewRecorder()
	h.Delete(rec, testutil.WithUser(withUnit(testutil.NewRequest(http.MethodDelete, "/"), models.UnitPromptSet, ps.ID.Hex()), testutil.MemberUser(author.ID)))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestDelete(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	author := fx.CreateMember(ctx, "Ann", "Acme")
	a := fx.CreateArticle(ctx, "Gone", models.Identity{Kind: models.KindMember, ID: author.ID},
		models.UnitStatusApproved, models.VisibilityAllMembers)

	rec := testutil.NewRecorder()
	h.Delete(rec, testutil.WithUser(withUnit(testutil.NewRequest(http.MethodDelete, "/"), models.UnitArticle, a.ID.Hex()), testutil.MemberUser(author.ID)))
	rec.AssertStatus(t, http.StatusNoContent)

	if _, err := h.Units.Get(ctx, models.UnitArticle, a.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("unit still present: %v", err)
	}
}

func TestByTopic_Unknown(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := testutil.NewRecorder()
	h.ByTopic(rec, testutil.WithChiURLParam(testutil.NewRequest(http.MethodGet, "/"), "topic", "astrology"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestSuggestions(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	leader := fx.CreateLeader(ctx, "Lee", "Acme", 3)
	gm := fx.CreateGroupMember(ctx, "Gus", leader.ID)

	rec := testutil.NewRecorder()
	h.Suggest(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/library/suggestions", map[string]any{
		"topic": "Time Management",
		"note":  "<i>please</i>",
	}), testutil.GroupMemberUser(gm.ID)))
	rec.AssertStatus(t, http.StatusCreated)

	var ts models.TopicSuggestion
	rec.DecodeJSON(t, &ts)
	if ts.GroupID != leader.ID || ts.Topic != "time_management" || ts.Note != "please" {
		t.Errorf("unexpected suggestion %+v", ts)
	}

	rec = testutil.NewRecorder()
	h.Suggest(rec, testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/library/suggestions", map[string]any{
		"topic": "astrology",
	}), testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	h.ListSuggestions(rec, testutil.WithUser(testutil.NewRequest(http.MethodGet, "/library/suggestions"), testutil.LeaderUser(leader.ID)))
	rec.AssertStatus(t, http.StatusOK)
	var list struct {
		Suggestions []models.TopicSuggestion `json:"suggestions"`
	}
	rec.DecodeJSON(t, &list)
	if len(list.Suggestions) != 1 {
		t.Errorf("got %d suggestions, want 1", len(list.Suggestions))
	}
}
