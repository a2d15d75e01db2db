package groupmembers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/app/system/authutil"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/normalize"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

const emailInUse = "An account with this email already exists."

type joinBody struct {
	Code     string `json:"registration_code" validate:"required,max=32" label:"Registration code"`
	Name     string `json:"name" validate:"required,max=100" label:"Name"`
	Email    string `json:"email" validate:"required,email,max=254" label:"Email"`
	Password string `json:"password" validate:"required,min=8,max=72" label:"Password"`
	Image    string `json:"image" validate:"image" label:"Image"`
}

type joinResponse struct {
	models.GroupMember
	GroupName string `json:"group_name"`
	LeaderID  string `json:"leader_id"`
}

// Join handles POST /groupmembers. The registration code selects the
// group; the join fails when every seat the leader bought is taken.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var body joinBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	body.Code = normalize.Code(body.Code)
	body.Name = normalize.Name(body.Name)
	body.Email = normalize.Email(body.Email)
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}

	if ok, msg := h.Guard.Check(r, body.Code); !ok {
		uierrors.WriteJSON(w, http.StatusTooManyRequests, uierrors.Body{Message: msg})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	leader, err := h.Leaders.GetByCode(ctx, body.Code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "No group uses that registration code.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "leader lookup failed", err, "", "")
		return
	}

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

	gm, err := h.GroupMembers.Join(ctx, leader, models.GroupMember{
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: hash,
		Image:        body.Image,
	})
	switch {
	case errors.Is(err, groupmemberstore.ErrGroupFull):
		uierrors.RenderConflict(w, r, "This group has no free seats. Ask your leader to add seats.")
		return
	case errors.Is(err, groupmemberstore.ErrDuplicateEmail):
		uierrors.RenderConflict(w, r, emailInUse)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "group member insert failed", err, "", "")
		return
	}
	h.Guard.Succeeded(body.Code)
	h.AuditLog.GroupMemberJoined(ctx, r, gm.ID, leader.ID)

	acct := identities.Account{
		Identity:     models.Identity{Kind: models.KindGroupMember, ID: gm.ID},
		Name:         gm.Name,
		Email:        gm.Email,
		Status:       gm.Status,
		Organization: leader.Organization,
		GroupID:      leader.ID,
	}
	if err := h.SessionMgr.SignIn(w, r, identities.SessionUser(acct)); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, joinResponse{
		GroupMember: gm,
		GroupName:   leader.GroupName,
		LeaderID:    leader.ID.Hex(),
	})
}
