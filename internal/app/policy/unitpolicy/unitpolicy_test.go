package unitpolicy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twennie/twennie/internal/app/policy/unitpolicy"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func party(kind models.IdentityKind, group primitive.ObjectID, org string) unitpolicy.Party {
	return unitpolicy.Party{
		Identity:     models.Identity{Kind: kind, ID: primitive.NewObjectID()},
		GroupID:      group,
		Organization: org,
	}
}

func unitBy(author unitpolicy.Party, vis models.Visibility, status string) *models.UnitBase {
	return &models.UnitBase{
		Visibility: vis,
		Status:     status,
		Author:     models.Author{ID: author.ID, Kind: author.Kind},
	}
}

func TestCanViewBody(t *testing.T) {
	groupA := primitive.NewObjectID()
	leader := unitpolicy.Party{Identity: models.Identity{Kind: models.KindLeader, ID: groupA}, GroupID: groupA, Organization: "Acme"}
	teammate := party(models.KindGroupMember, groupA, "Acme")
	orgmate := party(models.KindMember, primitive.NilObjectID, "ACME ")
	stranger := party(models.KindMember, primitive.NilObjectID, "Globex")
	loner := party(models.KindMember, primitive.NilObjectID, "")

	tests := []struct {
		name   string
		viewer *unitpolicy.Party
		vis    models.Visibility
		status string
		want   bool
	}{
		{"visitor never", nil, models.VisibilityAllMembers, models.UnitStatusApproved, false},
		{"author sees draft", &leader, models.VisibilityTeam, models.UnitStatusInProgress, true},
		{"others miss draft", &teammate, models.VisibilityAllMembers, models.UnitStatusSubmitted, false},
		{"all members", &stranger, models.VisibilityAllMembers, models.UnitStatusApproved, true},
		{"team mate", &teammate, models.VisibilityTeam, models.UnitStatusApproved, true},
		{"team outsider", &orgmate, models.VisibilityTeam, models.UnitStatusApproved, false},
		{"org case folded", &orgmate, models.VisibilityOrganization, models.UnitStatusApproved, true},
		{"org mismatch", &stranger, models.VisibilityOrganization, models.UnitStatusApproved, false},
		{"blank org", &loner, models.VisibilityOrganization, models.UnitStatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unitpolicy.CanViewBody(tt.viewer, unitBy(leader, tt.vis, tt.status), leader)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanListMetadata(t *testing.T) {
	author := party(models.KindMember, primitive.NilObjectID, "Acme")
	other := party(models.KindMember, primitive.NilObjectID, "Acme")

	assert.True(t, unitpolicy.CanListMetadata(nil, unitBy(author, models.VisibilityTeam, models.UnitStatusApproved)))
	assert.False(t, unitpolicy.CanListMetadata(nil, unitBy(author, models.VisibilityTeam, models.UnitStatusInProgress)))
	assert.False(t, unitpolicy.CanListMetadata(&other, unitBy(author, models.VisibilityAllMembers, models.UnitStatusSubmitted)))
	assert.True(t, unitpolicy.CanListMetadata(&author, unitBy(author, models.VisibilityAllMembers, models.UnitStatusSubmitted)))
}
