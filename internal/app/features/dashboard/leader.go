// internal/app/features/dashboard/leader.go
package dashboard

import (
	"context"

	"github.com/twennie/twennie/internal/app/policy/unitpolicy"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// leaderView adds the leader's group: members with prompt-set progress,
// topic suggestions, assignments and the registration code.
func (h *Handler) leaderView(ctx context.Context, acct identities.Account) (*view, error) {
	v, err := h.personal(ctx, acct)
	if err != nil {
		return nil, err
	}

	leader, err := h.Leaders.GetByID(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	members, err := h.GroupMembers.ListByGroup(ctx, leader.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	authors := make([]unitpolicy.Party, 0, len(members))
	for _, gm := range members {
		ids = append(ids, gm.ID)
		authors = append(authors, unitpolicy.Party{
			Identity:     models.Identity{Kind: models.KindGroupMember, ID: gm.ID},
			GroupID:      leader.ID,
			Organization: leader.Organization,
		})
	}

	regs, err := h.PromptSets.Registrations.ListByMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	comps, err := h.PromptSets.Completions.ListByMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	inFlight := make(map[primitive.ObjectID]int)
	for _, r := range regs {
		if r.CompletedAt == nil {
			inFlight[r.Identity.ID]++
		}
	}
	completed := make(map[primitive.ObjectID]int)
	for _, c := range comps {
		completed[c.Identity.ID]++
	}

	g := &groupView{
		LeaderID:         leader.ID,
		Name:             leader.GroupName,
		RegistrationCode: leader.RegistrationCode,
		Seats:            leader.GroupSize,
	}
	for _, gm := range members {
		g.Members = append(g.Members, memberRow{
			ID:        gm.ID,
			Name:      gm.Name,
			Image:     gm.Image,
			InFlight:  inFlight[gm.ID],
			Completed: completed[gm.ID],
		})
	}

	g.Suggestions, err = h.Suggestions.ListByGroup(ctx, leader.ID)
	if err != nil {
		return nil, err
	}
	g.Assignments, err = h.PromptSets.Assignments.ListByLeader(ctx, leader.ID)
	if err != nil {
		return nil, err
	}
	v.Group = g

	v.TeamUnits, err = h.teamUnits(ctx, acct, authors)
	if err != nil {
		return nil, err
	}

	v.counts[models.TabGroup] = len(members)
	v.counts[models.TabSuggestions] = len(g.Suggestions)
	return v, nil
}
