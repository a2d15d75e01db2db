// internal/app/features/library/suggestions.go
package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/htmlsanitize"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/app/system/topics"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type suggestionBody struct {
	Topic string `json:"topic" validate:"required,topic" label:"Topic"`
	Note  string `json:"note" validate:"max=500" label:"Note"`
}

// groupOf returns the leader id of the signed-in identity's group.
func (h *Handler) groupOf(ctx context.Context, id models.Identity) (primitive.ObjectID, error) {
	if id.Kind == models.KindLeader {
		return id.ID, nil
	}
	acct, err := h.Accounts.Lookup(ctx, id)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return acct.GroupID, nil
}

// Suggest handles POST /library/suggestions.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	me, _, _ := authz.UserCtx(r)

	var body suggestionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	body.Topic = topics.Normalize(body.Topic)
	body.Note = htmlsanitize.Plain(body.Note)
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.groupOf(ctx, me)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Account not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load group failed", err, "", "")
		return
	}

	ts, err := h.Suggestions.Create(ctx, models.TopicSuggestion{
		GroupID:   group,
		CreatedBy: me,
		Topic:     body.Topic,
		Note:      body.Note,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create topic suggestion failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, ts)
}

// ListSuggestions handles GET /library/suggestions: the group's suggestions,
// newest first.
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	me, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.groupOf(ctx, me)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Account not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load group failed", err, "", "")
		return
	}

	rows, err := h.Suggestions.ListByGroup(ctx, group)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list topic suggestions failed", err, "", "")
		return
	}
	if rows == nil {
		rows = []models.TopicSuggestion{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"suggestions": rows})
}
