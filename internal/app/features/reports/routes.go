// internal/app/features/reports/routes.go
package reports

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireSignedIn)
		rr.Use(sm.RequireKind(models.KindLeader))
		rr.Get("/group-progress.xlsx", h.ServeGroupProgressXLSX)
		rr.Get("/group-progress.csv", h.ServeGroupProgressCSV)
	})

	return r
}
