// internal/domain/models/tag.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaggedUnit is one content unit associated with a tag.
type TaggedUnit struct {
	ItemID   primitive.ObjectID `bson:"item_id" json:"item_id"`
	UnitType UnitKind           `bson:"unit_type" json:"unit_type"`
}

// TagAssignment is a leader's instruction to one group member, attached to
// a tag. CompletedAt is set when the member marks it done.
type TagAssignment struct {
	MemberID     primitive.ObjectID `bson:"member_id" json:"member_id"`
	Instructions string             `bson:"instructions" json:"instructions"`
	AssignedAt   time.Time          `bson:"assigned_at" json:"assigned_at"`
	CompletedAt  *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Tag is a globally named label. Names are unique across the whole system
// ignoring case, so two users tagging with the same word share one tag.
// Name keeps the spelling of whoever created it.
type Tag struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	NameCI           string             `bson:"name_ci" json:"-"`
	CreatedBy        primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedByModel   IdentityKind       `bson:"created_by_model" json:"created_by_model"`
	AssociatedUnits  []TaggedUnit       `bson:"associated_units" json:"associated_units"`
	AssociatedTopics []string           `bson:"associated_topics" json:"associated_topics"`
	AssignedTo       []TagAssignment    `bson:"assigned_to" json:"assigned_to"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// Creator returns the tag's creator as an Identity.
func (t *Tag) Creator() Identity {
	return Identity{Kind: t.CreatedByModel, ID: t.CreatedBy}
}

// Empty reports whether the tag has nothing left to hold.
func (t *Tag) Empty() bool {
	return len(t.AssociatedUnits) == 0 && len(t.AssociatedTopics) == 0 && len(t.AssignedTo) == 0
}

// AssignmentFor returns the member's assignment entry, if any.
func (t *Tag) AssignmentFor(memberID primitive.ObjectID) (TagAssignment, bool) {
	for _, a := range t.AssignedTo {
		if a.MemberID == memberID {
			return a, true
		}
	}
	return TagAssignment{}, false
}
