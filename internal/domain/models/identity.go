// internal/domain/models/identity.go
package models

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBadIdentity is returned by ParseIdentity for malformed references.
var ErrBadIdentity = errors.New("malformed identity reference")

// IdentityKind discriminates the three account collections.
type IdentityKind string

const (
	KindMember      IdentityKind = "member"
	KindLeader      IdentityKind = "leader"
	KindGroupMember IdentityKind = "group_member"
)

// Valid reports whether k names one of the account collections.
func (k IdentityKind) Valid() bool {
	switch k {
	case KindMember, KindLeader, KindGroupMember:
		return true
	}
	return false
}

// Collection returns the Mongo collection that holds accounts of this kind.
func (k IdentityKind) Collection() string {
	switch k {
	case KindMember:
		return "members"
	case KindLeader:
		return "leaders"
	case KindGroupMember:
		return "group_members"
	}
	return ""
}

// Identity is a reference to exactly one account. It is populated at login
// and carried in the session, so callers never need to guess which
// collection an id belongs to.
type Identity struct {
	Kind IdentityKind       `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.Kind == "" || i.ID.IsZero()
}

func (i Identity) IsLeader() bool      { return i.Kind == KindLeader }
func (i Identity) IsGroupMember() bool { return i.Kind == KindGroupMember }
func (i Identity) IsMember() bool      { return i.Kind == KindMember }

// String renders "kind:hexid", which is also the Stripe client reference format.
func (i Identity) String() string {
	return string(i.Kind) + ":" + i.ID.Hex()
}

// ParseIdentity reverses String.
func ParseIdentity(s string) (Identity, error) {
	kind, hex, ok := strings.Cut(s, ":")
	if !ok || !IdentityKind(kind).Valid() {
		return Identity{}, ErrBadIdentity
	}
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return Identity{}, ErrBadIdentity
	}
	return Identity{Kind: IdentityKind(kind), ID: oid}, nil
}
