// internal/domain/models/dashboardseen.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dashboard tab names.
const (
	TabGroup         = "group"
	TabSuggestions   = "suggestions"
	TabRegistrations = "registrations"
	TabCompletions   = "completions"
	TabLibrary       = "library"
	TabTags          = "tags"
)

// DashboardTabs lists the tabs in display order.
var DashboardTabs = []string{TabGroup, TabSuggestions, TabRegistrations, TabCompletions, TabLibrary, TabTags}

// TabSeen is the baseline count for one tab and when it was recorded.
type TabSeen struct {
	Count  int       `bson:"count" json:"count"`
	SeenAt time.Time `bson:"seen_at" json:"seen_at"`
}

// DashboardSeen holds per-tab baselines for one (user, role).
type DashboardSeen struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role      IdentityKind       `bson:"role" json:"role"`
	Tabs      map[string]TabSeen `bson:"tabs" json:"tabs"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
