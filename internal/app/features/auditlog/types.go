// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/twennie/twennie/internal/app/store/audit"
	"github.com/twennie/twennie/internal/app/system/paging"
)

// listItem is one audit event as shown to its subject.
type listItem struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Category  string            `json:"category"`
	EventType string            `json:"event_type"`
	Subject   string            `json:"subject,omitempty"` // resolved from Identity
	Actor     string            `json:"actor,omitempty"`   // resolved from Actor
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Details   map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items      []listItem `json:"items"`
	Scope      string     `json:"scope"`
	Category   string     `json:"category,omitempty"`
	EventType  string     `json:"event_type,omitempty"`
	TimeZone   string     `json:"tz"`
	EventTypes []string   `json:"event_types"`
	paging.Window
}

const (
	scopeSelf  = "self"
	scopeGroup = "group"
)

var (
	authEvents = []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUnknownEmail,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
	}
	accountEvents = []string{
		audit.EventMemberSignedUp,
		audit.EventLeaderSignedUp,
		audit.EventGroupMemberJoined,
		audit.EventGroupMemberRemoved,
		audit.EventMemberConverted,
		audit.EventCodeRegenerated,
		audit.EventSubscriptionActive,
		audit.EventPasswordChanged,
	}
)

// eventTypesForCategory returns the event types for a category, or all
// of them when category is empty. Unknown categories yield nil.
func eventTypesForCategory(category string) []string {
	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAccount:
		return accountEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(accountEvents))
		all = append(all, authEvents...)
		return append(all, accountEvents...)
	default:
		return nil
	}
}
