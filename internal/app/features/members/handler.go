// internal/app/features/members/handler.go
package members

import (
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	identities "github.com/twennie/twennie/internal/app/store/identities"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	memberstore "github.com/twennie/twennie/internal/app/store/members"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves individual member accounts: sign-up, profile and
// conversion to a leader.
type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	SessionMgr *auth.SessionManager
	Members    *memberstore.Store
	Leaders    *leaderstore.Store
	Accounts   *identities.Resolver
}

func NewHandler(db *mongo.Database, sm *auth.SessionManager, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		ErrLog:     errLog,
		AuditLog:   auditLog,
		SessionMgr: sm,
		Members:    memberstore.New(db),
		Leaders:    leaderstore.New(db),
		Accounts:   identities.New(db),
	}
}
