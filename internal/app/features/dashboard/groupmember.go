// internal/app/features/dashboard/groupmember.go
package dashboard

import (
	"context"

	"github.com/twennie/twennie/internal/app/policy/unitpolicy"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/domain/models"
)

// groupMemberView adds the group roster and units written by the leader
// and the other members.
func (h *Handler) groupMemberView(ctx context.Context, acct identities.Account) (*view, error) {
	v, err := h.personal(ctx, acct)
	if err != nil {
		return nil, err
	}

	leader, err := h.Leaders.GetByID(ctx, acct.GroupID)
	if err != nil {
		return nil, err
	}
	members, err := h.GroupMembers.ListByGroup(ctx, leader.ID)
	if err != nil {
		return nil, err
	}

	g := &groupView{LeaderID: leader.ID, Name: leader.GroupName}
	authors := []unitpolicy.Party{{
		Identity:     models.Identity{Kind: models.KindLeader, ID: leader.ID},
		GroupID:      leader.ID,
		Organization: leader.Organization,
	}}
	for _, gm := range members {
		g.Members = append(g.Members, memberRow{ID: gm.ID, Name: gm.Name, Image: gm.Image})
		authors = append(authors, unitpolicy.Party{
			Identity:     models.Identity{Kind: models.KindGroupMember, ID: gm.ID},
			GroupID:      leader.ID,
			Organization: leader.Organization,
		})
	}
	v.Group = g

	v.TeamUnits, err = h.teamUnits(ctx, acct, authors)
	if err != nil {
		return nil, err
	}

	suggestions, err := h.Suggestions.CountByGroup(ctx, leader.ID)
	if err != nil {
		return nil, err
	}
	v.counts[models.TabGroup] = len(members)
	v.counts[models.TabSuggestions] = int(suggestions)
	return v, nil
}
