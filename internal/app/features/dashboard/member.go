// internal/app/features/dashboard/member.go
package dashboard

import (
	"context"

	"github.com/twennie/twennie/internal/app/store/identities"
)

// memberView is the dashboard for individual members, who have no group.
func (h *Handler) memberView(ctx context.Context, acct identities.Account) (*view, error) {
	return h.personal(ctx, acct)
}
