// internal/app/features/groupmembers/routes.go
package groupmembers

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// Routes mounts /groupmembers.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Join)
	r.With(sm.RequireSignedIn, sm.RequireKind(models.KindGroupMember)).Get("/group", h.Group)
	return r
}
