// internal/app/features/tags/handler.go
package tags

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Engine *Engine
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Engine: NewEngine(db),
		Log:    logger,
		ErrLog: errLog,
	}
}

type assignmentBody struct {
	MemberID     string `json:"member_id" validate:"required,objectid" label:"Assignment member_id"`
	Instructions string `json:"instructions" validate:"max=2000" label:"Instructions"`
}

// tagBody carries field-level rules; whether a unit or a topic is given
// is checked by the engine.
type tagBody struct {
	Name        string           `json:"name" validate:"required,max=64" label:"name"`
	ItemID      string           `json:"item_id" validate:"omitempty,objectid" label:"item_id"`
	ItemType    string           `json:"item_type" validate:"max=20" label:"item_type"`
	Topic       string           `json:"topic" validate:"max=100" label:"topic"`
	Assignments []assignmentBody `json:"assignments" validate:"max=10,dive" label:"Assignments"`
}

// decodeTag reads and validates a tag body, writing the 400 itself.
func decodeTag(w http.ResponseWriter, r *http.Request) (tagBody, bool) {
	var body tagBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return body, false
	}
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return body, false
	}
	return body, true
}

// objectID parses a hex id already checked by the objectid rule. Blank
// yields the zero id.
func objectID(raw string) primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	return oid
}

// writeErr maps engine errors to responses.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		uierrors.RenderBadRequest(w, r, "", ve.Problems)
	case errors.Is(err, ErrForbidden):
		uierrors.RenderForbidden(w, r, err.Error())
	case errors.Is(err, ErrNotFound):
		uierrors.RenderNotFound(w, r, err.Error())
	case errors.Is(err, ErrConflict):
		uierrors.RenderConflict(w, r, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "", "")
	}
}

// List handles GET /tags.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Engine.ListForIdentity(ctx, id)
	if err != nil {
		h.writeErr(w, r, "list tags failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}

// Create handles POST /tags.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	body, ok := decodeTag(w, r)
	if !ok {
		return
	}
	in := CreateInput{
		Name:     body.Name,
		ItemID:   objectID(body.ItemID),
		ItemType: models.UnitKind(strings.TrimSpace(body.ItemType)),
		Topic:    body.Topic,
		Creator:  id,
	}
	for _, a := range body.Assignments {
		in.Assignments = append(in.Assignments, AssignmentInput{MemberID: objectID(a.MemberID), Instructions: a.Instructions})
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Engine.CreateTag(ctx, in)
	if err != nil {
		h.writeErr(w, r, "create tag failed", err)
		return
	}

	h.Log.Info("tag applied",
		zap.String("tag", res.Tag.Name),
		zap.Bool("created", res.Created),
		zap.Int("assigned", len(res.Assigned)),
		zap.String("identity", id.String()))

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	uierrors.WriteJSON(w, status, res.Tag)
}

// Remove handles POST /tags/remove.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	body, ok := decodeTag(w, r)
	if !ok {
		return
	}
	in := RemoveInput{
		Name:     body.Name,
		ItemID:   objectID(body.ItemID),
		ItemType: models.UnitKind(strings.TrimSpace(body.ItemType)),
		Topic:    body.Topic,
		Actor:    id,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Engine.RemoveTag(ctx, in)
	if err != nil {
		h.writeErr(w, r, "remove tag failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// Unassign handles DELETE /tags/{name}/assignments/{memberID}.
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "", []string{"member id is malformed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	deleted, err := h.Engine.Unassign(ctx, id, chi.URLParam(r, "name"), memberID)
	if err != nil {
		h.writeErr(w, r, "unassign tag failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// Complete handles POST /tags/{name}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, _, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Engine.CompleteAssignment(ctx, id, chi.URLParam(r, "name")); err != nil {
		h.writeErr(w, r, "complete tag assignment failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
