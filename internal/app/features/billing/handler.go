// internal/app/features/billing/handler.go
package billing

import (
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	uierrors "github.com/twennie/twennie/internal/app/features/errors"
	leaderstore "github.com/twennie/twennie/internal/app/store/leaders"
	memberstore "github.com/twennie/twennie/internal/app/store/members"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Config carries the Stripe keys and prices. Billing is disabled when
// SecretKey is empty.
type Config struct {
	SecretKey     string
	WebhookSecret string
	MemberPriceID string
	LeaderPriceID string
	BaseURL       string
}

// Sessions creates Stripe Checkout sessions. *session.Client satisfies it.
type Sessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Handler struct {
	Cfg      Config
	Sessions Sessions
	Members  *memberstore.Store
	Leaders  *leaderstore.Store
	AuditLog *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, cfg Config, auditLog *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	h := &Handler{
		Cfg:      cfg,
		Members:  memberstore.New(db),
		Leaders:  leaderstore.New(db),
		AuditLog: auditLog,
		ErrLog:   errLog,
		Log:      logger,
	}
	if cfg.SecretKey != "" {
		h.Sessions = &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey}
	}
	return h
}
