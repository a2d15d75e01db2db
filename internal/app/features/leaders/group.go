package leaders

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/policy/grouppolicy"
	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type groupView struct {
	Leader    models.Leader        `json:"leader"`
	Members   []models.GroupMember `json:"members"`
	SeatsUsed int                  `json:"seats_used"`
	Seats     int                  `json:"seats"`
}

// Group handles GET /leaders/group.
func (h *Handler) Group(w http.ResponseWriter, r *http.Request) {
	leaderID, ok := grouppolicy.LeaderOf(r)
	if !ok {
		uierrors.RenderForbidden(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	l, err := h.Leaders.GetByID(ctx, leaderID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Leader not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "leader load failed", err, "", "")
		return
	}
	gms, err := h.GroupMembers.ListByGroup(ctx, leaderID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "group list failed", err, "", "")
		return
	}
	if gms == nil {
		gms = []models.GroupMember{}
	}
	uierrors.WriteJSON(w, http.StatusOK, groupView{
		Leader:    l,
		Members:   gms,
		SeatsUsed: len(gms),
		Seats:     l.Seats(),
	})
}

// RemoveMember handles DELETE /leaders/group/members/{memberID}.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "memberID"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "", []string{"member id is malformed"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	can, err := grouppolicy.CanManageMember(ctx, h.GroupMembers, r, memberID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "group membership check failed", err, "", "")
		return
	}
	if !can {
		uierrors.RenderNotFound(w, r, "Group member not found.")
		return
	}

	leaderID, _ := grouppolicy.LeaderOf(r)
	if err := h.GroupMembers.Remove(ctx, leaderID, memberID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.RenderNotFound(w, r, "Group member not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "group member remove failed", err, "", "")
		return
	}
	h.AuditLog.GroupMemberRemoved(ctx, r, memberID, leaderID)
	w.WriteHeader(http.StatusNoContent)
}

// RegenerateCode handles POST /leaders/group/code. The old code stops
// working immediately.
func (h *Handler) RegenerateCode(w http.ResponseWriter, r *http.Request) {
	leaderID, ok := grouppolicy.LeaderOf(r)
	if !ok {
		uierrors.RenderForbidden(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	code, err := h.Leaders.RegenerateCode(ctx, leaderID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Leader not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "code regeneration failed", err, "", "")
		return
	}
	h.AuditLog.CodeRegenerated(ctx, r, leaderID)
	h.Log.Info("registration code regenerated", zap.String("leader_id", leaderID.Hex()))
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"registration_code": code})
}

type activityRow struct {
	EventType string `json:"event_type"`
	Identity  string `json:"identity,omitempty"`
	At        string `json:"at"`
}

// Activity handles GET /leaders/group/activity: recent joins, removals and
// code changes for the leader's group.
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	leaderID, ok := grouppolicy.LeaderOf(r)
	if !ok {
		uierrors.RenderForbidden(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.Query(ctx, audit.QueryFilter{
		GroupID:  &leaderID,
		Category: audit.CategoryAccount,
		Limit:    50,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "group activity load failed", err, "", "")
		return
	}
	out := make([]activityRow, 0, len(events))
	for _, e := range events {
		row := activityRow{EventType: e.EventType, At: e.Timestamp.UTC().Format(time.RFC3339)}
		if e.Identity != nil {
			row.Identity = e.Identity.String()
		}
		out = append(out, row)
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}
