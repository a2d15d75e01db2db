// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// Routes mounts /members. Sign-up is public; the rest needs a member session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Signup)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireKind(models.KindMember))
		pr.Get("/me", h.Me)
		pr.Post("/convert", h.Convert)
	})
	return r
}
