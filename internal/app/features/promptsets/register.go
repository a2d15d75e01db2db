// internal/app/features/promptsets/register.go
package promptsets

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type planBody struct {
	Frequency            string `json:"frequency" validate:"max=50" label:"frequency"`
	TargetCompletionDate string `json:"target_completion_date" validate:"omitempty,datetime=2006-01-02" label:"target_completion_date"`
}

// Register handles POST /promptsets/{id}/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)
	psID, ok := promptSetID(w, r)
	if !ok {
		return
	}

	var body planBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}
	plan := Plan{Frequency: body.Frequency, Target: parseDate(body.TargetCompletionDate)}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	reg, err := h.Lifecycle.Register(ctx, id, psID, plan)
	if err != nil {
		h.writeErr(w, r, "register for prompt set failed", err)
		return
	}
	h.Log.Info("registered for prompt set",
		zap.String("identity", id.String()),
		zap.String("promptset_id", psID.Hex()))
	uierrors.WriteJSON(w, http.StatusCreated, reg)
}

// Unregister handles DELETE /promptsets/{id}/register.
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)
	psID, ok := promptSetID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Lifecycle.Unregister(ctx, id, psID); err != nil {
		h.writeErr(w, r, "unregister from prompt set failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mine handles GET /promptsets.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ov, err := h.Lifecycle.Overview(ctx, id)
	if err != nil {
		h.writeErr(w, r, "prompt set overview failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, ov)
}
