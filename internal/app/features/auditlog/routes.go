// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
)

// Routes mounts the activity log under the path where this router is
// mounted (typically "/activity" from bootstrap).
//
// Every signed-in identity sees events about itself; leaders may also ask
// for their group's events with scope=group.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
	})

	return r
}
