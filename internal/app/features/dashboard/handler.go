// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	"github.com/twennie/twennie/internal/app/features/promptsets"
	"github.com/twennie/twennie/internal/app/features/tags"
	dashboardseenstore "github.com/twennie/twennie/internal/app/store/dashboardseen"
	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	"github.com/twennie/twennie/internal/app/store/identities"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	suggestionstore "github.com/twennie/twennie/internal/app/store/suggestions"
	unitstore "github.com/twennie/twennie/internal/app/store/units"
	"github.com/twennie/twennie/internal/app/system/authz"
	"github.com/twennie/twennie/internal/app/system/timeouts"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger

	Units        *unitstore.Store
	Identities   *identities.Resolver
	Leaders      *leaderstore.Store
	GroupMembers *groupmemberstore.Store
	Suggestions  *suggestionstore.Store
	Seen         *dashboardseenstore.Store
	Tags         *tags.Engine
	PromptSets   *promptsets.Lifecycle
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:           db,
		Log:          logger,
		ErrLog:       errLog,
		Units:        unitstore.New(db),
		Identities:   identities.New(db),
		Leaders:      leaderstore.New(db),
		GroupMembers: groupmemberstore.New(db),
		Suggestions:  suggestionstore.New(db),
		Seen:         dashboardseenstore.New(db),
		Tags:         tags.NewEngine(db),
		PromptSets:   promptsets.NewLifecycle(db, logger),
	}
}

// ServeDashboard dispatches on the signed-in identity's kind.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	id, _, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, err := h.Identities.Lookup(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard account lookup failed", err, "", "")
		return
	}

	v, err := h.build(ctx, acct)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard aggregation failed", err, "", "")
		return
	}

	if err := h.applySeen(ctx, id, v); err != nil {
		h.ErrLog.LogServerError(w, r, "dashboard seen baseline failed", err, "", "")
		return
	}

	h.Log.Debug("dashboard served", zap.String("identity", id.String()), zap.String("kind", string(id.Kind)))
	uierrors.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) build(ctx context.Context, acct identities.Account) (*view, error) {
	switch acct.Kind {
	case models.KindLeader:
		return h.leaderView(ctx, acct)
	case models.KindGroupMember:
		return h.groupMemberView(ctx, acct)
	default:
		return h.memberView(ctx, acct)
	}
}
