// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"
	"net/http"

	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	"github.com/twennie/twennie/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LeaderOf returns the group a request may manage: the signed-in
// leader's own group. ok is false for every other identity.
func LeaderOf(r *http.Request) (leaderID primitive.ObjectID, ok bool) {
	id, _, signedIn := authz.UserCtx(r)
	if !signedIn || !id.IsLeader() {
		return primitive.NilObjectID, false
	}
	return id.ID, true
}

// CanManageMember reports whether the current request user can manage the
// group member: only the leader whose group the member belongs to can.
// Returns an error if the database check fails, allowing callers to
// distinguish between "not authorized" (false, nil) and "database error"
// (false, err).
func CanManageMember(ctx context.Context, gms *groupmemberstore.Store, r *http.Request, memberID primitive.ObjectID) (bool, error) {
	leaderID, ok := LeaderOf(r)
	if !ok {
		return false, nil
	}
	in, err := gms.InGroup(ctx, leaderID, []primitive.ObjectID{memberID})
	if err != nil {
		return false, err
	}
	return in[memberID], nil
}
