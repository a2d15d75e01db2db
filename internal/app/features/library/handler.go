// internal/app/features/library/handler.go
package library

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/policy/approverpolicy"
	"github.com/twennie/twennie/internal/app/policy/unitpolicy"
	badgedraftstore "github.com/twennie/twennie/internal/app/store/badgedrafts"
	"github.com/twennie/twennie/internal/app/store/identities"
	suggestionstore "github.com/twennie/twennie/internal/app/store/suggestions"
	unitstore "github.com/twennie/twennie/internal/app/store/units"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves content authoring, approval, topic browsing and topic
// suggestions.
type Handler struct {
	Log         *zap.Logger
	ErrLog      *uierrors.ErrorLogger
	Units       *unitstore.Store
	Accounts    *identities.Resolver
	Drafts      *badgedraftstore.Store
	Suggestions *suggestionstore.Store
	Approvers   approverpolicy.Approvers
}

func NewHandler(db *mongo.Database, approvers approverpolicy.Approvers, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:         logger,
		ErrLog:      errLog,
		Units:       unitstore.New(db),
		Accounts:    identities.New(db),
		Drafts:      badgedraftstore.New(db),
		Suggestions: suggestionstore.New(db),
		Approvers:   approvers,
	}
}

// unitRef reads the {kind} and {id} URL parameters. A bad kind is a 404,
// a malformed id a 400.
func unitRef(w http.ResponseWriter, r *http.Request) (models.UnitKind, primitive.ObjectID, bool) {
	k := models.UnitKind(chi.URLParam(r, "kind"))
	if !k.Valid() {
		uierrors.RenderNotFound(w, r, "Unknown content type.")
		return "", primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "", []string{"unit id is malformed"})
		return "", primitive.NilObjectID, false
	}
	return k, oid, true
}

// viewer returns the signed-in party, or nil for visitors and for
// sessions whose account no longer exists.
func (h *Handler) viewer(ctx context.Context, r *http.Request) (*unitpolicy.Party, error) {
	id, _, ok := authz.UserCtx(r)
	if !ok {
		return nil, nil
	}
	acct, err := h.Accounts.Lookup(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := unitpolicy.FromAccount(acct)
	return &p, nil
}

// author resolves a unit's author for display and for visibility checks.
func (h *Handler) author(ctx context.Context, a models.Author) (identities.AuthorInfo, unitpolicy.Party, error) {
	info, err := h.Accounts.ResolveAuthor(ctx, a)
	if err != nil {
		return identities.AuthorInfo{}, unitpolicy.Party{}, err
	}
	party := unitpolicy.Party{Identity: models.Identity{Kind: info.Kind, ID: a.ID}}
	if !info.Kind.Valid() {
		return info, party, nil
	}
	acct, err := h.Accounts.Lookup(ctx, party.Identity)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return info, party, nil
	case err != nil:
		return identities.AuthorInfo{}, unitpolicy.Party{}, err
	}
	return info, unitpolicy.FromAccount(acct), nil
}

// loadOwned loads a unit and checks that the signed-in identity wrote it.
// It writes the error response itself and returns ok=false on failure.
func (h *Handler) loadOwned(ctx context.Context, w http.ResponseWriter, r *http.Request, k models.UnitKind, id primitive.ObjectID) (models.Unit, bool) {
	me, _, _ := authz.UserCtx(r)
	u, err := h.Units.Get(ctx, k, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Content not found.")
		return nil, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load unit failed", err, "", "")
		return nil, false
	}
	if u.Base().Author.ID != me.ID {
		uierrors.RenderForbidden(w, r, "Only the author can change this content.")
		return nil, false
	}
	return u, true
}

// summaryOf projects a loaded unit to its listing form.
func summaryOf(u models.Unit) models.UnitSummary {
	b := u.Base()
	return models.UnitSummary{
		ID:              b.ID,
		Kind:            u.Kind(),
		Title:           u.Title(),
		MainTopic:       b.MainTopic,
		SecondaryTopics: b.SecondaryTopics,
		Visibility:      b.Visibility,
		Author:          b.Author,
		Status:          b.Status,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (h *Handler) writeStoreErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Content not found.")
	case errors.Is(err, unitstore.ErrStatus):
		uierrors.RenderConflict(w, r, "The content's status does not allow this change.")
	case errors.Is(err, unitstore.ErrUnknownKind):
		uierrors.RenderNotFound(w, r, "Unknown content type.")
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "", "")
	}
}
