// internal/app/features/library/units.go
package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/policy/unitpolicy"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/limits"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type unitResponse struct {
	Unit        any                   `json:"unit"`
	Author      identities.AuthorInfo `json:"author"`
	BodyVisible bool                  `json:"body_visible"`
}

func decodeForm(w http.ResponseWriter, r *http.Request) (*unitForm, bool) {
	var f unitForm
	body := http.MaxBytesReader(w, r.Body, limits.MaxUnitBody)
	if err := json.NewDecoder(body).Decode(&f); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return nil, false
	}
	f.clean()
	return &f, true
}

// badgeFor resolves a prompt set's badge from a draft token or from the
// inline badge. A consumed draft is deleted by the caller after the unit
// is stored.
func (h *Handler) badgeFor(ctx context.Context, w http.ResponseWriter, r *http.Request, f *unitForm) (models.Badge, bool) {
	if f.BadgeToken == "" {
		badge, problems := inlineBadge(f.Badge)
		if len(problems) > 0 {
			uierrors.RenderBadRequest(w, r, "", problems)
			return models.Badge{}, false
		}
		return badge, true
	}
	me, _, _ := authz.UserCtx(r)
	d, err := h.Drafts.Get(ctx, me, f.BadgeToken)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderBadRequest(w, r, "Badge selection expired or not found.", nil)
		return models.Badge{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load badge draft failed", err, "", "")
		return models.Badge{}, false
	}
	return d.Badge, true
}

func (h *Handler) consumeDraft(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := h.Drafts.Delete(ctx, token); err != nil {
		h.Log.Warn("delete badge draft failed", zap.String("token", token), zap.Error(err))
	}
}

// Create handles POST /library/{kind}. The signed-in identity becomes the
// author and the unit starts "in progress".
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	k := models.UnitKind(chi.URLParam(r, "kind"))
	if !k.Valid() {
		uierrors.RenderNotFound(w, r, "Unknown content type.")
		return
	}
	me, _, _ := authz.UserCtx(r)

	f, ok := decodeForm(w, r)
	if !ok {
		return
	}
	if problems := f.validate(k); len(problems) > 0 {
		uierrors.RenderBadRequest(w, r, "", problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var badge models.Badge
	if k == models.UnitPromptSet {
		if badge, ok = h.badgeFor(ctx, w, r, f); !ok {
			return
		}
	}

	u := f.build(k, models.UnitBase{
		Author: models.Author{ID: me.ID, Kind: me.Kind},
		Status: models.UnitStatusInProgress,
	}, badge)
	if err := h.Units.Create(ctx, u); err != nil {
		h.ErrLog.LogServerError(w, r, "create unit failed", err, "", "")
		return
	}
	if k == models.UnitPromptSet {
		h.consumeDraft(ctx, f.BadgeToken)
	}

	h.Log.Info("unit created",
		zap.String("kind", string(k)),
		zap.String("unit_id", u.Base().ID.Hex()),
		zap.String("author_id", me.ID.Hex()))
	uierrors.WriteJSON(w, http.StatusCreated, u)
}

// View handles GET /library/{kind}/{id}. Visitors and viewers outside the
// unit's visibility scope get metadata only. Units that are not approved
// are hidden from everyone but their author.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	k, id, ok := unitRef(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Units.Get(ctx, k, id)
	if err != nil {
		h.writeStoreErr(w, r, "load unit failed", err)
		return
	}
	viewer, err := h.viewer(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load viewer failed", err, "", "")
		return
	}
	b := u.Base()
	if !unitpolicy.CanListMetadata(viewer, b) {
		uierrors.RenderNotFound(w, r, "Content not found.")
		return
	}
	// Placeholders never enter the library; only the author reads them.
	if k == models.UnitUpcoming && (viewer == nil || viewer.ID != b.Author.ID) {
		uierrors.RenderNotFound(w, r, "Content not found.")
		return
	}

	info, authorParty, err := h.author(ctx, b.Author)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve author failed", err, "", "")
		return
	}

	resp := unitResponse{Author: info}
	if unitpolicy.CanViewBody(viewer, b, authorParty) {
		resp.Unit = u
		resp.BodyVisible = true
	} else {
		resp.Unit = summaryOf(u)
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

// Update handles PUT /library/{kind}/{id}. Editing a submitted or approved
// unit returns it to "in progress". Approved prompt sets are locked
// because in-flight progress indexes into their prompts.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	k, id, ok := unitRef(w, r)
	if !ok {
		return
	}
	f, ok := decodeForm(w, r)
	if !ok {
		return
	}
	if problems := f.validate(k); len(problems) > 0 {
		uierrors.RenderBadRequest(w, r, "", problems)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.loadOwned(ctx, w, r, k, id)
	if !ok {
		return
	}
	old := existing.Base()
	if k == models.UnitPromptSet && old.Status == models.UnitStatusApproved {
		uierrors.RenderConflict(w, r, "Approved prompt sets cannot be edited.")
		return
	}

	var badge models.Badge
	if k == models.UnitPromptSet {
		if f.BadgeToken == "" && f.Badge == nil {
			badge = existing.(*models.PromptSet).Badge
		} else if badge, ok = h.badgeFor(ctx, w, r, f); !ok {
			return
		}
	}

	u := f.build(k, models.UnitBase{
		ID:        old.ID,
		Author:    old.Author,
		Status:    models.UnitStatusInProgress,
		CreatedAt: old.CreatedAt,
	}, badge)
	if err := h.Units.Replace(ctx, u); err != nil {
		h.writeStoreErr(w, r, "update unit failed", err)
		return
	}
	if k == models.UnitPromptSet {
		h.consumeDraft(ctx, f.BadgeToken)
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /library/{kind}/{id}. Approved prompt sets may
// have registrations and are kept.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	k, id, ok := unitRef(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadOwned(ctx, w, r, k, id)
	if !ok {
		return
	}
	b := u.Base()
	if k == models.UnitPromptSet && b.Status == models.UnitStatusApproved {
		uierrors.RenderConflict(w, r, "Approved prompt sets cannot be deleted.")
		return
	}
	if err := h.Units.Delete(ctx, k, id, b.Author.ID); err != nil {
		h.writeStoreErr(w, r, "delete unit failed", err)
		return
	}
	h.Log.Info("unit deleted", zap.String("kind", string(k)), zap.String("unit_id", id.Hex()))
	w.WriteHeader(http.StatusNoContent)
}

// Mine handles GET /library/mine: every unit the signed-in identity wrote,
// upcoming placeholders included.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	me, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Units.ListByAuthor(ctx, me.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list own units failed", err, "", "")
		return
	}
	if rows == nil {
		rows = []models.UnitSummary{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"units": rows})
}
