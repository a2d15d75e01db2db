// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/store/identities"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Events   *audit.Store
	Accounts *identities.Resolver
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs an account activity handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:   audit.New(db),
		Accounts: identities.New(db),
		Log:      logger,
		ErrLog:   errLog,
	}
}
