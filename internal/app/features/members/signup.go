package members

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	memberstore "github.com/twennie/twennie/internal/app/store/members"
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
	Organization string `json:"organization" validate:"max=200" label:"Organization"`
	Image        string `json:"image" validate:"image" label:"Image"`
}

// Signup handles POST /members. The new member is signed in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	body.Name = normalize.Name(body.Name)
	body.Email = normalize.Email(body.Email)
	body.Organization = normalize.Organization(body.Organization)

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
	if errors.Is(err, authutil.ErrWeakPassword) {
		uierrors.RenderBadRequest(w, r, "", []string{err.Error()})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "password hash failed", err, "", "")
		return
	}

	m, err := h.Members.Create(ctx, models.Member{
		Name:           body.Name,
		Email:          body.Email,
		PasswordHash:   hash,
		MembershipType: models.MembershipFree,
		Image:          body.Image,
		Organization:   body.Organization,
	})
	if errors.Is(err, memberstore.ErrDuplicateEmail) {
		uierrors.RenderConflict(w, r, emailInUse)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member insert failed", err, "", "")
		return
	}
	h.AuditLog.MemberSignedUp(ctx, r, m.ID)

	acct := identities.Account{
		Identity:     models.Identity{Kind: models.KindMember, ID: m.ID},
		Name:         m.Name,
		Email:        m.Email,
		Status:       m.Status,
		Organization: m.Organization,
	}
	if err := h.SessionMgr.SignIn(w, r, identities.SessionUser(acct)); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, m)
}
