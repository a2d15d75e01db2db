// internal/app/features/library/approval.go
package library

import (
	"context"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.uber.org/zap"
)

// Submit handles POST /library/{kind}/{id}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	k, id, ok := unitRef(w, r)
	if !ok {
		return
	}
	if k == models.UnitUpcoming {
		uierrors.RenderBadRequest(w, r, "Upcoming placeholders are not submitted for approval.", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, ok := h.loadOwned(ctx, w, r, k, id); !ok {
		return
	}
	if err := h.Units.Transition(ctx, k, id,
		[]string{models.UnitStatusInProgress}, models.UnitStatusSubmitted); err != nil {
		h.writeStoreErr(w, r, "submit unit failed", err)
		return
	}
	h.Log.Info("unit submitted", zap.String("kind", string(k)), zap.String("unit_id", id.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"status": models.UnitStatusSubmitted})
}

// Review handles GET /library/review: units awaiting approval.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	if !h.Approvers.CanApprove(r) {
		uierrors.RenderForbidden(w, r, "Only approvers can review submissions.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, err := h.Units.ListSubmitted(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list submitted units failed", err, "", "")
		return
	}
	if rows == nil {
		rows = []models.UnitSummary{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"units": rows})
}

// Approve handles POST /library/{kind}/{id}/approve.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.UnitStatusApproved)
}

// Reject handles POST /library/{kind}/{id}/reject, returning a submission
// to its author.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.UnitStatusInProgress)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, next string) {
	k, id, ok := unitRef(w, r)
	if !ok {
		return
	}
	if !h.Approvers.CanApprove(r) {
		uierrors.RenderForbidden(w, r, "Only approvers can decide on submissions.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Units.Transition(ctx, k, id,
		[]string{models.UnitStatusSubmitted}, next); err != nil {
		h.writeStoreErr(w, r, "update unit status failed", err)
		return
	}
	h.Log.Info("unit reviewed",
		zap.String("kind", string(k)),
		zap.String("unit_id", id.Hex()),
		zap.String("status", next),
		zap.String("approver", authz.Email(r)))
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"status": next})
}
