package leaders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	"github.com/twennie/twennie/internal/app/system/authutil"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/normalize"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
)

const emailInUse = "An account with this email already exists."

type signupBody struct {
	Name         string `json:"name" validate:"required,max=100" label:"Name"`
	Email        string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password     string `json:"password" validate:"required,min=8,max=72" label:"Password"`
	Organization string `json:"organization" validate:"required,max=200" label:"Organization"`
	GroupName    string `json:"group_name" validate:"required,max=100" label:"Group name"`
	GroupSize    int    `json:"group_size" validate:"min=1,max=10" label:"Group size"`
	Image        string `json:"image" validate:"image" label:"Image"`
}

// Signup handles POST /leaders. The leader gets a fresh registration code
// and is signed in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	body.Name = normalize.Name(body.Name)
	body.Email = normalize.Email(body.Email)
	body.Organization = normalize.Organization(body.Organization)
	body.GroupName = normalize.Name(body.GroupName)
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	taken, err := h.Accounts.EmailTaken(ctx, body.Email)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "email check failed", err, "", "")
		return
	}
	if taken {
		uierrors.RenderConflict(w, r, emailInUse)
		return
	}

	hash, err := authutil.HashPassword(body.Password)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "password hash failed", err, "", "")
		return
	}

	l, err := h.Leaders.Create(ctx, models.Leader{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: hash,
		Image:        body.Image,
		Organization: body.Organization,
		GroupName:    body.GroupName,
		GroupSize:    body.GroupSize,
	})
	switch {
	case errors.Is(err, leaderstore.ErrDuplicateEmail):
		uierrors.RenderConflict(w, r, emailInUse)
		return
	case errors.Is(err, leaderstore.ErrBadGroupSize):
		uierrors.RenderBadRequest(w, r, "", []string{"Group size must be between 1 and 10."})
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "leader insert failed", err, "", "")
		return
	}
	h.AuditLog.LeaderSignedUp(ctx, r, l.ID, l.GroupSize)

	acct := identities.Account{
		Identity:     models.Identity{Kind: models.KindLeader, ID: l.ID},
		Name:         l.Name,
		Email:        l.Email,
		Status:       l.Status,
		Organization: l.Organization,
		GroupID:      l.ID,
	}
	if err := h.SessionMgr.SignIn(w, r, identities.SessionUser(acct)); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, l)
}
