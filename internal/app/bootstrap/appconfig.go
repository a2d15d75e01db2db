// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig carries
// the framework-level settings: ports, TLS, log level, CORS and body
// limits. Everything Twennie-specific lives here and is passed to every
// lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: twennie-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Content approval
	ApproverEmails []string

	// Stripe billing; blank secret key disables checkout
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeMemberPriceID string
	StripeLeaderPriceID string

	// Base URL for checkout return links
	BaseURL string // e.g., "https://twennie.com" or "http://localhost:3000"

	// Background jobs
	ReconcileInterval time.Duration
	BadgeDraftTTL     time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogAccount string
}
