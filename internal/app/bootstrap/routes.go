// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	activityfeature "github.com/twennie/twennie/internal/app/features/auditlog"
	billingfeature "github.com/twennie/twennie/internal/app/features/billing"
	dashboardfeature "github.com/twennie/twennie/internal/app/features/dashboard"
	errorsfeature "github.com/twennie/twennie/internal/app/features/errors"
	groupmembersfeature "github.com/twennie/twennie/internal/app/features/groupmembers"
	healthfeature "github.com/twennie/twennie/internal/app/features/health"
	leadersfeature "github.com/twennie/twennie/internal/app/features/leaders"
	libraryfeature "github.com/twennie/twennie/internal/app/features/library"
	loginfeature "github.com/twennie/twennie/internal/app/features/login"
	logoutfeature "github.com/twennie/twennie/internal/app/features/logout"
	membersfeature "github.com/twennie/twennie/internal/app/features/members"
	profilefeature "github.com/twennie/twennie/internal/app/features/profile"
	promptsetsfeature "github.com/twennie/twennie/internal/app/features/promptsets"
	reportsfeature "github.com/twennie/twennie/internal/app/features/reports"
	tagsfeature "github.com/twennie/twennie/internal/app/features/tags"
	userinfofeature "github.com/twennie/twennie/internal/app/features/userinfo"
	"github.com/twennie/twennie/internal/app/policy/approverpolicy"
	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/app/system/auditlog"
	"github.com/twennie/twennie/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// Twennie applies session middleware globally and mounts a JSON feature
// router per area: accounts, tags, prompt sets, the content library,
// dashboards, reports and billing.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the account on every request so deletions
	// and renames take effect immediately.
	sessionMgr.SetUserFetcher(identities.New(db))

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Account: appCfg.AuditLogAccount,
	})
	approvers := approverpolicy.New(appCfg.ApproverEmails)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, runner, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, loginGuard, auditLog, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Fallbacks the session middleware redirects browsers to
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Session identity for clients deciding what to show
	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	// Accounts
	membersHandler := membersfeature.NewHandler(db, sessionMgr, auditLog, errLog, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

	leadersHandler := leadersfeature.NewHandler(db, sessionMgr, auditLog, errLog, logger)
	r.Mount("/leaders", leadersfeature.Routes(leadersHandler, sessionMgr))

	groupMembersHandler := groupmembersfeature.NewHandler(db, sessionMgr, joinGuard, auditLog, errLog, logger)
	r.Mount("/groupmembers", groupmembersfeature.Routes(groupMembersHandler, sessionMgr))

	profileHandler := profilefeature.NewHandler(db, auditLog, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Tags and prompt sets
	tagsHandler := tagsfeature.NewHandler(db, errLog, logger)
	r.Mount("/tags", tagsfeature.Routes(tagsHandler, sessionMgr))

	promptSetsHandler := promptsetsfeature.NewHandler(db, appCfg.BadgeDraftTTL, errLog, logger)
	r.Mount("/promptsets", promptsetsfeature.Routes(promptSetsHandler, sessionMgr))

	dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Content library
	libraryHandler := libraryfeature.NewHandler(db, approvers, errLog, logger)
	r.Mount("/library", libraryfeature.Routes(libraryHandler, sessionMgr))

	// Reports
	reportsHandler := reportsfeature.NewHandler(db, errLog, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

	// Account activity (audit trail)
	activityHandler := activityfeature.NewHandler(db, errLog, logger)
	r.Mount("/activity", activityfeature.Routes(activityHandler, sessionMgr))

	// Billing
	billingHandler := billingfeature.NewHandler(db, billingfeature.Config{
		SecretKey:     appCfg.StripeSecretKey,
		WebhookSecret: appCfg.StripeWebhookSecret,
		MemberPriceID: appCfg.StripeMemberPriceID,
		LeaderPriceID: appCfg.StripeLeaderPriceID,
		BaseURL:       appCfg.BaseURL,
	}, auditLog, errLog, logger)
	r.Mount("/billing", billingfeature.Routes(billingHandler, sessionMgr))

	return r, nil
}
