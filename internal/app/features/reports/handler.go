// internal/app/features/reports/handler.go
package reports

import (
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	completionstore "github.com/twennie/twennie/internal/app/store/completions"
	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	progressstore "github.com/twennie/twennie/internal/app/store/progress"
	registrationstore "github.com/twennie/twennie/internal/app/store/registrations"
	unitstore "github.com/twennie/twennie/internal/app/store/units"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the leader progress exports.
//
// It is constructed once at startup in bootstrap and passed into Routes().
type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	GroupMembers  *groupmemberstore.Store
	Registrations *registrationstore.Store
	Progress      *progressstore.Store
	Completions   *completionstore.Store
	Units         *unitstore.Store
}

// NewHandler constructs a reports Handler bound to the given Mongo
// database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:           logger,
		ErrLog:        errLog,
		GroupMembers:  groupmemberstore.New(db),
		Registrations: registrationstore.New(db),
		Progress:      progressstore.New(db),
		Completions:   completionstore.New(db),
		Units:         unitstore.New(db),
	}
}
