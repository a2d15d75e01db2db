// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the profile endpoints shared by all three identity kinds.
type Handler struct {
	Accounts *identities.Resolver
	AuditLog *auditlog.Logger
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given Mongo database and logger.
func NewHandler(db *mongo.Database, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts: identities.New(db),
		AuditLog: auditLog,
		Log:      logger,
		ErrLog:   errLog,
	}
}
