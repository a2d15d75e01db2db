// Package reportpolicy provides authorization policies for report access.
//
// Authorization rules:
//   - Leaders can view progress reports for their own group only
//   - Members and group members cannot access reports
package reportpolicy

import (
	"net/http"

	"github.com/twennie/twennie/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReportScope represents the scope of data a user can access in reports.
type ReportScope struct {
	// CanView indicates whether the user can view reports at all.
	CanView bool
	// GroupID is the leader whose group the report covers.
	GroupID primitive.ObjectID
}

// CanViewGroupProgress determines the group whose progress the current
// user may export.
func CanViewGroupProgress(r *http.Request) ReportScope {
	id, _, ok := authz.UserCtx(r)
	if !ok || !id.IsLeader() {
		return ReportScope{CanView: false}
	}
	return ReportScope{CanView: true, GroupID: id.ID}
}
