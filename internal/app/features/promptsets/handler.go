// internal/app/features/promptsets/handler.go
package promptsets

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the prompt-set lifecycle endpoints.
type Handler struct {
	Lifecycle *Lifecycle
	DraftTTL  time.Duration
	Log       *zap.Logger
	ErrLog    *uierrors.ErrorLogger
}

func NewHandler(db *mongo.Database, draftTTL time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if draftTTL <= 0 {
		draftTTL = 30 * time.Minute
	}
	return &Handler{
		Lifecycle: NewLifecycle(db, logger),
		DraftTTL:  draftTTL,
		Log:       logger,
		ErrLog:    errLog,
	}
}

// promptSetID reads the {id} URL parameter, writing a 400 when malformed.
func promptSetID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderBadRequest(w, r, "", []string{"prompt set id is malformed"})
		return primitive.NilObjectID, false
	}
	return oid, true
}

// parseDate reads a YYYY-MM-DD value already checked by the datetime
// rule. Blank yields the zero time.
func parseDate(raw string) time.Time {
	t, _ := time.Parse(dateLayout, strings.TrimSpace(raw))
	return t
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var ve *ValidationError
	var ae *AssignedError
	switch {
	case errors.As(err, &ve):
		uierrors.RenderBadRequest(w, r, "", ve.Problems)
	case errors.As(err, &ae):
		uierrors.RenderConflict(w, r, ae.Error())
	case errors.Is(err, ErrRegistrationCap):
		uierrors.RenderBadRequest(w, r, err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		uierrors.RenderForbidden(w, r, err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotRegistered):
		uierrors.RenderNotFound(w, r, err.Error())
	case errors.Is(err, ErrAlreadyRegistered), errors.Is(err, ErrAlreadyCompleted), errors.Is(err, ErrStale):
		uierrors.RenderConflict(w, r, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, msg, err, "", "")
	}
}
