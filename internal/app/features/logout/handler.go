// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, AuditLog: auditLog, Log: logger}
}

// ServeLogout clears the session. Signing out without a session is not an error.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if id, ok := u.Identity(); ok {
			h.AuditLog.Logout(r.Context(), r, id)
		}
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("session clear failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
