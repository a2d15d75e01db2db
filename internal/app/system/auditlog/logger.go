// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/system/ratelimit"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ToAll = "all" // MongoDB and zap
	ToDB  = "db"
	ToLog = "log"
	Off   = "off"
)

// Config picks a destination per category. Empty means ToAll.
type Config struct {
	Auth    string
	Account string
}

// Logger writes audit events to the audit store and to zap.
// A nil *Logger is valid and discards everything.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) destination(category string) string {
	var d string
	switch category {
	case audit.CategoryAuth:
		d = l.config.Auth
	case audit.CategoryAccount:
		d = l.config.Account
	}
	if d == "" {
		return ToAll
	}
	return d
}

func (l *Logger) logToZap(e audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.Bool("success", e.Success),
		zap.String("ip", e.IP),
	}
	if e.Identity != nil {
		fields = append(fields, zap.String("identity", e.Identity.String()))
	}
	if e.Actor != nil {
		fields = append(fields, zap.String("actor", e.Actor.String()))
	}
	if e.GroupID != nil {
		fields = append(fields, zap.String("group_id", e.GroupID.Hex()))
	}
	if e.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", e.FailureReason))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if e.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records e. Store failures are logged and otherwise ignored so an
// audit outage never fails the request that caused the event.
func (l *Logger) Log(ctx context.Context, e audit.Event) {
	if l == nil {
		return
	}
	dest := l.destination(e.Category)
	if dest == Off {
		return
	}
	if dest == ToAll || dest == ToLog {
		l.logToZap(e)
	}
	if dest == ToAll || dest == ToDB {
		if err := l.store.Log(ctx, e); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", e.EventType))
		}
	}
}

func fromRequest(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

func ptr(id models.Identity) *models.Identity { return &id }

// --- Authentication ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, id models.Identity) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.Identity = ptr(id)
	l.Log(ctx, e)
}

// LoginFailed records a rejected sign-in. id is zero when the email
// matched no account.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, id models.Identity, email, eventType string) {
	e := fromRequest(r, audit.CategoryAuth, eventType, false)
	if !id.IsZero() {
		e.Identity = ptr(id)
	}
	e.FailureReason = eventType
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, id models.Identity) {
	e := fromRequest(r, audit.CategoryAuth, audit.EventLogout, true)
	e.Identity = ptr(id)
	l.Log(ctx, e)
}

// --- Accounts ---

func (l *Logger) MemberSignedUp(ctx context.Context, r *http.Request, memberID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventMemberSignedUp, true)
	e.Identity = ptr(models.Identity{Kind: models.KindMember, ID: memberID})
	l.Log(ctx, e)
}

func (l *Logger) LeaderSignedUp(ctx context.Context, r *http.Request, leaderID primitive.ObjectID, groupSize int) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventLeaderSignedUp, true)
	e.Identity = ptr(models.Identity{Kind: models.KindLeader, ID: leaderID})
	e.GroupID = &leaderID
	e.Details = map[string]string{"group_size": strconv.Itoa(groupSize)}
	l.Log(ctx, e)
}

func (l *Logger) GroupMemberJoined(ctx context.Context, r *http.Request, memberID, leaderID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventGroupMemberJoined, true)
	e.Identity = ptr(models.Identity{Kind: models.KindGroupMember, ID: memberID})
	e.GroupID = &leaderID
	l.Log(ctx, e)
}

func (l *Logger) GroupMemberRemoved(ctx context.Context, r *http.Request, memberID, leaderID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventGroupMemberRemoved, true)
	e.Identity = ptr(models.Identity{Kind: models.KindGroupMember, ID: memberID})
	e.Actor = ptr(models.Identity{Kind: models.KindLeader, ID: leaderID})
	e.GroupID = &leaderID
	l.Log(ctx, e)
}

func (l *Logger) MemberConverted(ctx context.Context, r *http.Request, memberID, leaderID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventMemberConverted, true)
	e.Identity = ptr(models.Identity{Kind: models.KindLeader, ID: leaderID})
	e.Actor = ptr(models.Identity{Kind: models.KindMember, ID: memberID})
	e.GroupID = &leaderID
	e.Details = map[string]string{"member_id": memberID.Hex()}
	l.Log(ctx, e)
}

func (l *Logger) CodeRegenerated(ctx context.Context, r *http.Request, leaderID primitive.ObjectID) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventCodeRegenerated, true)
	e.Identity = ptr(models.Identity{Kind: models.KindLeader, ID: leaderID})
	e.GroupID = &leaderID
	l.Log(ctx, e)
}

func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, id models.Identity) {
	e := fromRequest(r, audit.CategoryAccount, audit.EventPasswordChanged, true)
	e.Identity = ptr(id)
	l.Log(ctx, e)
}

// SubscriptionActivated is written by the billing webhook, which has no
// end-user request to take an IP from.
func (l *Logger) SubscriptionActivated(ctx context.Context, id models.Identity, customerID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventSubscriptionActive,
		Identity:  ptr(id),
		Success:   true,
		Details:   map[string]string{"customer_id": customerID},
	})
}
