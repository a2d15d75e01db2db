package members

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// Me handles GET /members/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _, ok := authz.UserCtx(r)
	if !ok || !id.IsMember() {
		uierrors.RenderForbidden(w, r, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Members.GetByID(ctx, id.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "Member not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "member load failed", err, "", "")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, m)
}
