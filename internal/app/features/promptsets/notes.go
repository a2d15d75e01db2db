// internal/app/features/promptsets/notes.go
package promptsets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// Start handles POST /promptsets/{id}/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)
	psID, ok := promptSetID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	outcome, p, err := h.Lifecycle.Start(ctx, id, psID)
	if err != nil {
		h.writeErr(w, r, "start prompt set failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"status": outcome, "progress": p})
}

type notesBody struct {
	Notes string `json:"notes"`
}

// SubmitNotes handles POST /promptsets/{id}/notes.
func (h *Handler) SubmitNotes(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)
	psID, ok := promptSetID(w, r)
	if !ok {
		return
	}

	var body notesBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Lifecycle.SubmitNotes(ctx, id, psID, body.Notes)
	if err != nil {
		h.writeErr(w, r, "submit notes failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, res)
}

// progressView is the caller's position in a prompt set.
type progressView struct {
	Title    string                   `json:"title"`
	Progress models.PromptSetProgress `json:"progress"`
	Percent  int                      `json:"percent"`
	Prompt   *models.Prompt           `json:"prompt,omitempty"`
}

// ProgressView handles GET /promptsets/{id}/progress.
func (h *Handler) ProgressView(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)
	psID, ok := promptSetID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ps, err := h.Lifecycle.promptSet(ctx, psID)
	if err != nil {
		h.writeErr(w, r, "load prompt set failed", err)
		return
	}
	p, err := h.Lifecycle.Progress.Get(ctx, id, psID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.writeErr(w, r, "", ErrNotRegistered)
		return
	}
	if err != nil {
		h.writeErr(w, r, "load progress failed", err)
		return
	}

	view := progressView{
		Title:    ps.PromptSetTitle,
		Progress: p,
		Percent:  models.ProgressPercent(len(p.CompletedPrompts)),
	}
	if p.CurrentPromptIndex >= 0 && p.CurrentPromptIndex < models.PromptCount {
		prompt := ps.Prompts[p.CurrentPromptIndex]
		view.Prompt = &prompt
	}
	uierrors.WriteJSON(w, http.StatusOK, view)
}
