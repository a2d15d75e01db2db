// internal/app/features/leaders/routes.go
package leaders

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// Routes mounts /leaders. Sign-up is public; group management is
// restricted to the signed-in leader's own group.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Signup)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireKind(models.KindLeader))

		pr.Get("/group", h.Group)
		pr.Get("/group/activity", h.Activity)
		pr.Post("/group/code", h.RegenerateCode)
		pr.Delete("/group/members/{memberID}", h.RemoveMember)
	})
	return r
}
