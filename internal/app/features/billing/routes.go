// internal/app/features/billing/routes.go
package billing

import (
	"github.com/go-chi/chi/v5"
	"github.com/twennie/twennie/internal/app/system/auth"
)

// Routes mounts /billing. The webhook authenticates by signature, not
// by session.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/webhook", h.Webhook)
	r.With(sm.RequireSignedIn).Post("/checkout", h.Checkout)
	return r
}
