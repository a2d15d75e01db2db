// internal/app/features/dashboard/seen.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// applySeen fills v.Tabs. The first render for a (user, kind) stores the
// counts as the baseline and flags nothing; later renders flag every tab
// whose count exceeds its baseline.
func (h *Handler) applySeen(ctx context.Context, id models.Identity, v *view) error {
	seen, found, err := h.Seen.Get(ctx, id.ID, id.Kind)
	if err != nil {
		return err
	}
	if !found {
		if err := h.Seen.InitBaseline(ctx, id.ID, id.Kind, v.counts); err != nil {
			return err
		}
	}

	v.Tabs = v.Tabs[:0]
	for _, name := range models.DashboardTabs {
		n := v.counts[name]
		tab := tabView{Name: name, Count: n}
		if found {
			// A tab without a baseline gets one now and is not flagged.
			if base, ok := seen.Tabs[name]; ok {
				tab.New = n > base.Count
			} else if err := h.Seen.MarkSeen(ctx, id.ID, id.Kind, name, n); err != nil {
				return err
			}
		}
		v.Tabs = append(v.Tabs, tab)
	}
	return nil
}

func validTab(name string) bool {
	for _, t := range models.DashboardTabs {
		if t == name {
			return true
		}
	}
	return false
}

// MarkSeen handles POST /dashboard/seen/{tab}: the tab's baseline moves to
// its current count, clearing the indicator until the count grows again.
func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	id, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	tab := chi.URLParam(r, "tab")
	if !validTab(tab) {
		uierrors.RenderNotFound(w, r, "Unknown dashboard tab.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, err := h.Identities.Lookup(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard account lookup failed", err, "", "")
		return
	}

	v, err := h.build(ctx, acct)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard aggregation failed", err, "", "")
		return
	}

	// Marking a tab before the first render must not leave the other tabs
	// without a baseline.
	if err := h.Seen.InitBaseline(ctx, id.ID, id.Kind, v.counts); err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard baseline failed", err, "", "")
		return
	}
	if err := h.Seen.MarkSeen(ctx, id.ID, id.Kind, tab, v.counts[tab]); err != nil {
		h.ErrLog.LogServerError(w, r, "mark dashboard tab seen failed", err, "", "")
		return
	}
	h.Log.Debug("dashboard tab seen", zap.String("identity", id.String()), zap.String("tab", tab))
	uierrors.WriteJSON(w, http.StatusOK, tabView{Name: tab, Count: v.counts[tab]})
}
