// internal/app/features/groupmembers/handler.go
package groupmembers

import (
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler lets people join a leader's group with its registration code.
type Handler struct {
	Log          *zap.Logger
	ErrLog       *uierrors.ErrorLogger
	AuditLog     *auditlog.Logger
	SessionMgr   *auth.SessionManager
	Guard        *ratelimit.Guard
	Leaders      *leaderstore.Store
	GroupMembers *groupmemberstore.Store
	Accounts     *identities.Resolver
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, guard *ratelimit.Guard, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if guard == nil {
		guard = ratelimit.NewJoinGuard()
	}
	return &Handler{
		Log:          logger,
		ErrLog:       errLog,
		AuditLog:     auditLog,
		SessionMgr:   sm,
		Guard:        guard,
		Leaders:      leaderstore.New(db),
		GroupMembers: groupmemberstore.New(db),
		Accounts:     identities.New(db),
	}
}
