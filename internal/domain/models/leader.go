// internal/domain/models/leader.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxGroupSize is the largest number of group members a leader can sponsor.
const MaxGroupSize = 10

// Leader owns a group. The group has no document of its own: a group
// member's GroupID is the leader's _id.
type Leader struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	EmailCI        string             `bson:"email_ci" json:"-"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	MembershipType string             `bson:"membership_type" json:"membership_type"` // always "leader"
	Status         string             `bson:"status" json:"status"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`

	Organization   string `bson:"organization" json:"organization"`
	OrganizationCI string `bson:"organization_ci" json:"-"`
	GroupName      string `bson:"group_name" json:"group_name"`
	GroupSize      int    `bson:"group_size" json:"group_size"` // purchased seats, 1..MaxGroupSize

	RegistrationCode string `bson:"registration_code" json:"registration_code"`

	StripeCustomerID   string `bson:"stripe_customer_id,omitempty" json:"-"`
	SubscriptionStatus string `bson:"subscription_status,omitempty" json:"subscription_status,omitempty"`

	ConvertedFromMemberID *primitive.ObjectID `bson:"converted_from_member_id,omitempty" json:"converted_from_member_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Seats returns the effective group capacity.
func (l *Leader) Seats() int {
	if l.GroupSize < 1 {
		return 1
	}
	if l.GroupSize > MaxGroupSize {
		return MaxGroupSize
	}
	return l.GroupSize
}
