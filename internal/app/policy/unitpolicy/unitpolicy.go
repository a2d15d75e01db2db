// Package unitpolicy decides who may read a content unit.
//
// Authorization rules:
//   - Authors always see their own units, whatever the status
//   - Units that are not approved are visible to their author only
//   - team_only: the viewer belongs to the author's group (a leader and
//     the group members they lead form one group)
//   - organization_only: viewer and author share an organization,
//     compared case-insensitively
//   - all_members: any signed-in identity
//   - Visitors (no identity) see metadata only, never the body
package unitpolicy

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/twennie/twennie/internal/app/store/identities"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Party is the part of an account that visibility depends on.
type Party struct {
	models.Identity
	GroupID      primitive.ObjectID
	Organization string
}

// FromAccount extracts the visibility-relevant fields of an account.
func FromAccount(a identities.Account) Party {
	return Party{Identity: a.Identity, GroupID: a.GroupID, Organization: a.Organization}
}

// SameGroup reports whether both parties belong to one leader's group.
func SameGroup(a, b Party) bool {
	return !a.GroupID.IsZero() && a.GroupID == b.GroupID
}

// SameOrganization compares organizations case-insensitively. Blank
// organizations never match.
func SameOrganization(a, b Party) bool {
	fa, fb := text.Fold(strings.TrimSpace(a.Organization)), text.Fold(strings.TrimSpace(b.Organization))
	return fa != "" && fa == fb
}

// CanViewBody reports whether viewer may read the full unit. A nil viewer
// is a visitor.
func CanViewBody(viewer *Party, unit *models.UnitBase, author Party) bool {
	if viewer == nil {
		return false
	}
	if viewer.ID == unit.Author.ID {
		return true
	}
	if unit.Status != models.UnitStatusApproved {
		return false
	}
	switch unit.Visibility {
	case models.VisibilityAllMembers:
		return true
	case models.VisibilityOrganization:
		return SameOrganization(*viewer, author)
	case models.VisibilityTeam:
		return SameGroup(*viewer, author)
	}
	return false
}

// CanListMetadata reports whether a unit's listing metadata may be shown.
// Approved units are listed for everyone; others only for their author.
func CanListMetadata(viewer *Party, unit *models.UnitBase) bool {
	if unit.Status == models.UnitStatusApproved {
		return true
	}
	return viewer != nil && viewer.ID == unit.Author.ID
}
