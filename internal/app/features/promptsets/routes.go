// internal/app/features/promptsets/routes.go
package promptsets

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// Routes mounts the prompt-set lifecycle under /promptsets.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.Mine)
	r.Post("/badge-drafts", h.CreateDraft)
	r.Get("/badge-drafts/{token}", h.GetDraft)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireKind(models.KindLeader))
		pr.Get("/assignments", h.LeaderAssignments)
		pr.Post("/{id}/assign", h.Assign)
	})

	r.Get("/{id}/progress", h.ProgressView)
	r.Post("/{id}/register", h.Register)
	r.Delete("/{id}/register", h.Unregister)
	r.Post("/{id}/start", h.Start)
	r.Post("/{id}/notes", h.SubmitNotes)
	return r
}
