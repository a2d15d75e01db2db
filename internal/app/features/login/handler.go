// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/audit"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/app/system/authutil"
	"github.com/twennie/twennie/internal/app/system/ratelimit"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// badCredentials covers both an unknown email and a wrong password.
const badCredentials = "Email or password is incorrect."

type Handler struct {
	Accounts   *identities.Resolver
	SessionMgr *auth.SessionManager
	Guard      *ratelimit.Guard
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, guard *ratelimit.Guard, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if guard == nil {
		guard = ratelimit.NewLoginGuard()
	}
	return &Handler{
		Accounts:   identities.New(db),
		SessionMgr: sm,
		Guard:      guard,
		AuditLog:   auditLog,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// HandleLoginPost handles POST /login. The account is found by email
// across members, leaders and group members; the session records which
// kind it is.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		uierrors.RenderBadRequest(w, r, "Request body must be JSON.", nil)
		return
	}
	email := strings.TrimSpace(body.Email)

	var problems []string
	if email == "" {
		problems = append(problems, "email is required")
	}
	if body.Password == "" {
		problems = append(problems, "password is required")
	}
	if len(problems) > 0 {
		uierrors.RenderBadRequest(w, r, "", problems)
		return
	}

	if ok, msg := h.Guard.Check(r, email); !ok {
		h.AuditLog.LoginFailed(r.Context(), r, models.Identity{}, email, audit.EventLoginFailedRateLimit)
		uierrors.WriteJSON(w, http.StatusTooManyRequests, uierrors.Body{Message: msg})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := h.Accounts.FindByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailed(ctx, r, models.Identity{}, email, audit.EventLoginFailedUnknownEmail)
		uierrors.WriteJSON(w, http.StatusUnauthorized, uierrors.Body{Message: badCredentials})
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "account lookup failed", err, "", "")
		return
	}
	if !authutil.CheckPassword(acct.PasswordHash, body.Password) {
		h.AuditLog.LoginFailed(ctx, r, acct.Identity, email, audit.EventLoginFailedWrongPassword)
		uierrors.WriteJSON(w, http.StatusUnauthorized, uierrors.Body{Message: badCredentials})
		return
	}

	if err := h.SessionMgr.SignIn(w, r, identities.SessionUser(acct)); err != nil {
		h.ErrLog.LogServerError(w, r, "session save failed", err, "", "")
		return
	}
	h.Guard.Succeeded(email)
	h.AuditLog.LoginSuccess(ctx, r, acct.Identity)

	uierrors.WriteJSON(w, http.StatusOK, loginResponse{
		ID:   acct.ID.Hex(),
		Kind: string(acct.Kind),
		Name: acct.Name,
	})
}
