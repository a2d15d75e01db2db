// internal/app/features/library/routes.go
package library

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// Routes mounts the library under /library. Topic browsing and unit views
// are public; visitors see metadata only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/topics", h.Topics)
	r.Get("/topics/{topic}", h.ByTopic)
	r.Get("/{kind}/{id}", h.View)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/mine", h.Mine)
		pr.Get("/review", h.Review)

		pr.With(sm.RequireKind(models.KindLeader, models.KindGroupMember)).
			Route("/suggestions", func(sr chi.Router) {
				sr.Get("/", h.ListSuggestions)
				sr.Post("/", h.Suggest)
			})

		pr.Post("/{kind}", h.Create)
		pr.Put("/{kind}/{id}", h.Update)
		pr.Delete("/{kind}/{id}", h.Delete)
		pr.Post("/{kind}/{id}/submit", h.Submit)
		pr.Post("/{kind}/{id}/approve", h.Approve)
		pr.Post("/{kind}/{id}/reject", h.Reject)
	})
	return r
}
