// Package approverpolicy decides who may approve submitted content.
//
// Approvers are configured by email address; any signed-in identity whose
// email matches (case-insensitively) may approve units of every kind.
package approverpolicy

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/twennie/twennie/internal/app/system/authz"
)

// Approvers is a case-folded set of approver email addresses.
type Approvers map[string]struct{}

// New builds an approver set, ignoring blank entries.
func New(emails []string) Approvers {
	a := make(Approvers, len(emails))
	for _, e := range emails {
		e = text.Fold(strings.TrimSpace(e))
		if e != "" {
			a[e] = struct{}{}
		}
	}
	return a
}

// Is reports whether email belongs to an approver.
func (a Approvers) Is(email string) bool {
	_, ok := a[text.Fold(strings.TrimSpace(email))]
	return ok
}

// CanApprove reports whether the signed-in user may approve content.
func (a Approvers) CanApprove(r *http.Request) bool {
	if _, _, ok := authz.UserCtx(r); !ok {
		return false
	}
	return a.Is(authz.Email(r))
}
