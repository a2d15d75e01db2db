// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Twennie.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: TWENNIE_MONGO_URI, TWENNIE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "twennie", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "twennie-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Content approval
	{Name: "approver_emails", Default: "", Desc: "Comma-separated emails allowed to approve submitted content"},

	// Stripe
	{Name: "stripe_secret_key", Default: "", Desc: "Stripe secret API key (blank disables checkout)"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook signing secret"},
	{Name: "stripe_member_price_id", Default: "", Desc: "Stripe price for individual members"},
	{Name: "stripe_leader_price_id", Default: "", Desc: "Stripe per-seat price for leaders"},

	// Base URL for checkout return links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL"},

	// Background jobs
	{Name: "reconcile_interval", Default: "10m", Desc: "How often shadowed prompt-set progress is reconciled"},
	{Name: "badge_draft_ttl", Default: "30m", Desc: "Lifetime of a badge selection between screens"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_account", Default: "all", Desc: "Account event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, TWENNIE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TWENNIE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		ApproverEmails: splitList(appValues.String("approver_emails")),

		StripeSecretKey:     appValues.String("stripe_secret_key"),
		StripeWebhookSecret: appValues.String("stripe_webhook_secret"),
		StripeMemberPriceID: appValues.String("stripe_member_price_id"),
		StripeLeaderPriceID: appValues.String("stripe_leader_price_id"),

		BaseURL: appValues.String("base_url"),

		ReconcileInterval: appValues.Duration("reconcile_interval", 10*time.Minute),
		BadgeDraftTTL:     appValues.Duration("badge_draft_ttl", 30*time.Minute),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogAccount: appValues.String("audit_log_account"),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Twennie validates the MongoDB URI format to catch configuration errors
// before attempting to connect, and refuses to start billing without the
// secrets and prices it needs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be set in production")
	}

	if appCfg.StripeSecretKey != "" {
		if appCfg.StripeWebhookSecret == "" || appCfg.StripeMemberPriceID == "" || appCfg.StripeLeaderPriceID == "" {
			return fmt.Errorf("stripe_secret_key requires stripe_webhook_secret, stripe_member_price_id and stripe_leader_price_id")
		}
	}

	for name, d := range map[string]time.Duration{
		"session_max_age":    appCfg.SessionMaxAge,
		"reconcile_interval": appCfg.ReconcileInterval,
		"badge_draft_ttl":    appCfg.BadgeDraftTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration (got %s)", name, d)
		}
	}

	for name, v := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_account": appCfg.AuditLogAccount,
	} {
		switch v {
		case "", auditlog.ToAll, auditlog.ToDB, auditlog.ToLog, auditlog.Off:
		default:
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}

	if len(appCfg.ApproverEmails) == 0 {
		logger.Warn("no approver_emails configured; submitted content cannot be approved")
	}
	return nil
}
