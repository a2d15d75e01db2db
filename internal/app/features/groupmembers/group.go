package groupmembers

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type teammate struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type groupView struct {
	GroupName string     `json:"group_name"`
	Leader    teammate   `json:"leader"`
	Members   []teammate `json:"members"`
}

// Group handles GET /groupmembers/group: the caller's leader and
// teammates, without emails.
func (h *Handler) Group(w http.ResponseWriter, r *http.Request) {
	id, _, ok := authz.UserCtx(r)
	if !ok || !id.IsGroupMember() {
		uierrors.RenderForbidden(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	me, err := h.GroupMembers.GetByID(ctx, id.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Group member not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "group member load failed", err, "", "")
		return
	}
	leader, err := h.Leaders.GetByID(ctx, me.GroupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "leader load failed", err, "", "")
		return
	}
	gms, err := h.GroupMembers.ListByGroup(ctx, me.GroupID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "group list failed", err, "", "")
		return
	}

	view := groupView{
		GroupName: leader.GroupName,
		Leader:    teammate{ID: leader.ID.Hex(), Name: leader.Name, Image: leader.Image},
		Members:   make([]teammate, 0, len(gms)),
	}
	for _, gm := range gms {
		view.Members = append(view.Members, teammate{ID: gm.ID.Hex(), Name: gm.Name, Image: gm.Image})
	}
	uierrors.WriteJSON(w, http.StatusOK, view)
}
