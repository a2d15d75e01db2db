// internal/app/features/leaders/handler.go
package leaders

import (
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/audit"
	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves leader sign-up and group management.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	AuditLog     *auditlog.Logger
	SessionMgr   *auth.SessionManager
	Leaders      *leaderstore.Store
	GroupMembers *groupmemberstore.Store
	Accounts     *identities.Resolver
	Events       *audit.Store
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		AuditLog:     auditLog,
		SessionMgr:   sm,
		Leaders:      leaderstore.New(db),
		GroupMembers: groupmemberstore.New(db),
		Accounts:     identities.New(db),
		Events:       audit.New(db),
	}
}
