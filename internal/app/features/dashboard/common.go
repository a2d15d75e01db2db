// internal/app/features/dashboard/common.go
package dashboard

import (
	"context"

	"github.com/twennie/twennie/internal/app/features/promptsets"
	"github.com/twennie/twennie/internal/app/features/tags"
	"github.com/twennie/twennie/internal/app/policy/unitpolicy"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// view is the JSON dashboard for every identity kind. Group is only set
// for leaders and group members.
type view struct {
	Kind       models.IdentityKind  `json:"kind"`
	Name       string               `json:"name"`
	OwnedUnits []models.UnitSummary `json:"owned_units"`
	TeamUnits  []models.UnitSummary `json:"team_units"`
	Tags       tagsView             `json:"tags"`
	PromptSets promptsets.Overview  `json:"promptsets"`
	Group      *groupView           `json:"group,omitempty"`
	Tabs       []tabView            `json:"tabs"`

	counts map[string]int
}

type tagsView struct {
	Created      []models.Tag       `json:"created"`
	AssignedOpen []tags.AssignedTag `json:"assigned_open"`
	AssignedDone []tags.AssignedTag `json:"assigned_done"`
}

type groupView struct {
	LeaderID         primitive.ObjectID       `json:"leader_id"`
	Name             string                   `json:"name"`
	RegistrationCode string                   `json:"registration_code,omitempty"`
	Seats            int                      `json:"seats,omitempty"`
	Members          []memberRow              `json:"members"`
	Suggestions      []models.TopicSuggestion `json:"suggestions,omitempty"`
	Assignments      []models.AssignPromptSet `json:"assignments,omitempty"`
}

type memberRow struct {
	ID        primitive.ObjectID `json:"id"`
	Name      string             `json:"name"`
	Image     string             `json:"image,omitempty"`
	InFlight  int                `json:"in_flight,omitempty"`
	Completed int                `json:"completed,omitempty"`
}

type tabView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	New   bool   `json:"new"`
}

// personal fills the sections every kind shares: owned units, tags and
// prompt sets.
func (h *Handler) personal(ctx context.Context, acct identities.Account) (*view, error) {
	v := &view{Kind: acct.Kind, Name: acct.Name}

	owned, err := h.Units.ListByAuthor(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	v.OwnedUnits = owned

	listing, err := h.Tags.ListForIdentity(ctx, acct.Identity)
	if err != nil {
		return nil, err
	}
	v.Tags.Created = listing.Created
	for _, a := range listing.Assigned {
		if a.Assignment.CompletedAt != nil {
			v.Tags.AssignedDone = append(v.Tags.AssignedDone, a)
		} else {
			v.Tags.AssignedOpen = append(v.Tags.AssignedOpen, a)
		}
	}

	ov, err := h.PromptSets.Overview(ctx, acct.Identity)
	if err != nil {
		return nil, err
	}
	v.PromptSets = ov

	v.counts = map[string]int{
		models.TabRegistrations: len(ov.InFlight),
		models.TabCompletions:   len(ov.Completed),
		models.TabLibrary:       len(owned),
		models.TabTags:          len(listing.Created) + len(listing.Assigned),
	}
	return v, nil
}

// teamUnits lists library units by authors, dropping those the viewer
// may not read.
func (h *Handler) teamUnits(ctx context.Context, viewer identities.Account, authors []unitpolicy.Party) ([]models.UnitSummary, error) {
	byID := make(map[primitive.ObjectID]unitpolicy.Party, len(authors))
	ids := make([]primitive.ObjectID, 0, len(authors))
	for _, a := range authors {
		if a.ID == viewer.ID {
			continue
		}
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}
	rows, err := h.Units.ListByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	vp := unitpolicy.FromAccount(viewer)
	var out []models.UnitSummary
	for _, u := range rows {
		base := &models.UnitBase{Visibility: u.Visibility, Status: u.Status, Author: u.Author}
		if unitpolicy.CanViewBody(&vp, base, byID[u.Author.ID]) {
			out = append(out, u)
		}
	}
	return out, nil
}
