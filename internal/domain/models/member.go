// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership types for individual members.
const (
	MembershipFree        = "free"
	MembershipContributor = "contributor"
	MembershipPaid        = "paid"
)

// Account status values shared by all identity collections.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Subscription status values written by the billing webhook.
const (
	SubscriptionNone   = ""
	SubscriptionActive = "active"
)

// Member is an individual account that does not belong to a group.
//
// A member converted to a leader is kept (inactive) with ConvertedToLeaderID
// pointing at the new leader document; the member _id is never reused.
type Member struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	EmailCI        string             `bson:"email_ci" json:"-"`
	PasswordHash   string             `bson:"password_hash" json:"-"`
	MembershipType string             `bson:"membership_type" json:"membership_type"` // free | contributor | paid
	Status         string             `bson:"status" json:"status"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`
	Organization   string             `bson:"organization,omitempty" json:"organization,omitempty"`
	OrganizationCI string             `bson:"organization_ci,omitempty" json:"-"`

	StripeCustomerID   string `bson:"stripe_customer_id,omitempty" json:"-"`
	SubscriptionStatus string `bson:"subscription_status,omitempty" json:"subscription_status,omitempty"`

	ConvertedToLeaderID *primitive.ObjectID `bson:"converted_to_leader_id,omitempty" json:"converted_to_leader_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
