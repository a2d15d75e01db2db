// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/twennie/twennie/internal/app/system/auth"
	"github.com/twennie/twennie/internal/domain/models"
)

// UserCtx returns the signed-in identity, display name, and a found flag.
// Visitors and sessions with a malformed id yield ok=false, so ok=true
// always means a valid identity.
func UserCtx(r *http.Request) (id models.Identity, name string, ok bool) {
	u, signed := auth.CurrentUser(r)
	if !signed {
		return models.Identity{}, "", false
	}
	id, valid := u.Identity()
	if !valid {
		return models.Identity{}, "", false
	}
	return id, u.Name, true
}

// Kind returns the identity kind of the current user, or "visitor".
func Kind(r *http.Request) string {
	id, _, ok := UserCtx(r)
	if !ok {
		return "visitor"
	}
	return string(id.Kind)
}

// IsLeader reports whether the current user is a leader.
func IsLeader(r *http.Request) bool {
	id, _, ok := UserCtx(r)
	return ok && id.IsLeader()
}

// IsGroupMember reports whether the current user is a group member.
func IsGroupMember(r *http.Request) bool {
	id, _, ok := UserCtx(r)
	return ok && id.IsGroupMember()
}

// IsMember reports whether the current user is an individual member.
func IsMember(r *http.Request) bool {
	id, _, ok := UserCtx(r)
	return ok && id.IsMember()
}

// Email returns the signed-in user's email, or "".
func Email(r *http.Request) string {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return ""
	}
	return u.Email
}
