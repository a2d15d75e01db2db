// internal/app/features/tags/routes.go
package tags

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// Routes mounts the tag endpoints under /tags.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/remove", h.Remove)
	r.Post("/{name}/complete", h.Complete)
	r.With(sm.RequireKind(models.KindLeader)).Delete("/{name}/assignments/{memberID}", h.Unassign)
	return r
}
