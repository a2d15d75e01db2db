// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/app/system/authutil"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/normalize"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type profileResponse struct {
	Kind         models.IdentityKind `json:"kind"`
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Image        string              `json:"image,omitempty"`
	Organization string              `json:"organization,omitempty"`
}

type profileBody struct {
	Name  string `json:"name" validate:"required,max=100" label:"Name"`
	Image string `json:"image" validate:"image" label:"Image"`
}

type passwordBody struct {
	Current string `json:"current_password" validate:"required" label:"Current password"`
	New     string `json:"new_password" validate:"required,min=8,max=72" label:"New password"`
}

// load fetches the signed-in account, writing the error response itself.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (identities.Account, bool) {
	me, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return identities.Account{}, false
	}
	a, err := h.Accounts.Lookup(ctx, me)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Account not found.")
		return identities.Account{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "account load failed", err, "", "")
		return identities.Account{}, false
	}
	return a, true
}

func responseOf(a identities.Account) profileResponse {
	return profileResponse{
		Kind:         a.Kind,
		ID:           a.ID.Hex(),
		Name:         a.Name,
		Email:        a.Email,
		Image:        a.Image,
		Organization: a.Organization,
	}
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, responseOf(a))
}

// HandleUpdateProfile handles PUT /profile. The session picks up the new
// name on the next request.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body profileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	body.Name = normalize.Name(body.Name)
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Accounts.UpdateProfile(ctx, a.Identity, body.Name, body.Image); err != nil {
		h.ErrLog.LogServerError(w, r, "profile update failed", err, "", "")
		return
	}
	a.Name, a.Image = body.Name, body.Image
	uierrors.WriteJSON(w, http.StatusOK, responseOf(a))
}

// HandleChangePassword handles POST /profile/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body passwordBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	if !authutil.CheckPassword(a.PasswordHash, body.Current) {
		uierrors.RenderBadRequest(w, r, "Current password is incorrect.", nil)
		return
	}

	hash, err := authutil.HashPassword(body.New)
	if errors.Is(err, authutil.ErrWeakPassword) {
		uierrors.RenderBadRequest(w, r, "", []string{err.Error()})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "password hash failed", err, "", "")
		return
	}
	if err := h.Accounts.SetPasswordHash(ctx, a.Identity, hash); err != nil {
		h.ErrLog.LogServerError(w, r, "password update failed", err, "", "")
		return
	}
	h.AuditLog.PasswordChanged(ctx, r, a.Identity)
	h.Log.Info("password changed", zap.String("identity", a.Identity.String()))
	w.WriteHeader(http.StatusNoContent)
}
