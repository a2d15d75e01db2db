// internal/domain/models/groupmember.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupMember belongs to exactly one leader's group and cannot exist
// without it.
type GroupMember struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID        primitive.ObjectID `bson:"group_id" json:"group_id"` // leader _id
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	EmailCI        string             `bson:"email_ci" json:"-"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	MembershipType string             `bson:"membership_type" json:"membership_type"` // always "group_member"
	Status         string             `bson:"status" json:"status"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
