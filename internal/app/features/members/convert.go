package members

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/normalize"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/app/system/txn"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errAlreadyConverted = errors.New("this account has already been converted")

type convertBody struct {
	GroupName    string `json:"group_name" validate:"required,max=100" label:"Group name"`
	GroupSize    int    `json:"group_size" validate:"min=1,max=10" label:"Group size"`
	Organization string `json:"organization" validate:"max=200" label:"Organization"`
}

// Convert handles POST /members/convert. A new leader document is created
// from the member's profile, the member is deactivated and linked to it,
// and the session switches to the leader. The member id is not reused.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id, _, ok := authz.UserCtx(r)
	if !ok || !id.IsMember() {
		uierrors.RenderForbidden(w, r, "Only individual members can convert to a leader account.")
		return
	}

	var body convertBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	body.GroupName = normalize.Name(body.GroupName)
	body.Organization = normalize.Organization(body.Organization)
	if res := inputval.Validate(body); res.HasErrors() {
		uierrors.RenderBadRequest(w, r, "", res.Messages())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	var leader models.Leader
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		m, err := h.Members.GetByID(ctx, id.ID)
		if err != nil {
			return err
		}
		if m.Status != models.StatusActive || m.ConvertedToLeaderID != nil {
			return errAlreadyConverted
		}
		org := body.Organization
		if org == "" {
			org = m.Organization
		}
		memberID := m.ID
		leader, err = h.Leaders.Create(ctx, models.Leader{
			Name:                  m.Name,
			Email:                 m.Email,
			PasswordHash:          m.PasswordHash,
			Image:                 m.Image,
			Organization:          org,
			GroupName:             body.GroupName,
			GroupSize:             body.GroupSize,
			StripeCustomerID:      m.StripeCustomerID,
			SubscriptionStatus:    m.SubscriptionStatus,
			ConvertedFromMemberID: &memberID,
		})
		if err != nil {
			return err
		}
		if err := h.Members.MarkConverted(ctx, m.ID, leader.ID); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return errAlreadyConverted
			}
			return err
		}
		return nil
	})
	switch {
	case errors.Is(err, errAlreadyConverted):
		uierrors.RenderConflict(w, r, errAlreadyConverted.Error())
		return
	case errors.Is(err, leaderstore.ErrDuplicateEmail):
		uierrors.RenderConflict(w, r, emailInUse)
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Member not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "member conversion failed", err, "", "")
		return
	}

	h.AuditLog.MemberConverted(ctx, r, id.ID, leader.ID)
	h.Log.Info("member converted to leader",
		zap.String("member_id", id.ID.Hex()),
		zap.String("leader_id", leader.ID.Hex()))

	acct := identities.Account{
		Identity:     models.Identity{Kind: models.KindLeader, ID: leader.ID},
		Name:         leader.Name,
		Email:        leader.Email,
		Status:       leader.Status,
		Organization: leader.Organization,
		GroupID:      leader.ID,
	}
	if err := h.SessionMgr.SignIn(w, r, identities.SessionUser(acct)); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, leader)
}
