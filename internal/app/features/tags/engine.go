// internal/app/features/tags/engine.go
package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"

	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	"github.com/twennie/twennie/internal/app/store/identities"
	tagstore "github.com/twennie/twennie/internal/app/store/tags"
	unitstore "github.com/twennie/twennie/internal/app/store/units"
	"github.com/twennie/twennie/internal/app/system/htmlsanitize"
	"github.com/twennie/twennie/internal/app/system/topics"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxNameLen bounds tag names.
const maxNameLen = 64

var (
	ErrForbidden = errors.New("not allowed to change this tag")
	ErrNotFound  = errors.New("tag not found")
	// ErrConflict surfaces a lost race on a brand new tag name.
	ErrConflict = errors.New("this tag was just created by someone else; please try again")
)

// ValidationError lists every problem with a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid tag request: " + strings.Join(e.Problems, "; ")
}

// Engine implements tagging and leader assignments on top of the stores.
type Engine struct {
	Tags         *tagstore.Store
	Units        *unitstore.Store
	GroupMembers *groupmemberstore.Store
	Identities   *identities.Resolver
}

// NewEngine wires an Engine to db.
func NewEngine(db *mongo.Database) *Engine {
	return &Engine{
		Tags:         tagstore.New(db),
		Units:        unitstore.New(db),
		GroupMembers: groupmemberstore.New(db),
		Identities:   identities.New(db),
	}
}

// AssignmentInput is one leader-to-member instruction.
type AssignmentInput struct {
	MemberID     primitive.ObjectID
	Instructions string
}

// CreateInput describes one tag action. Either ItemID with ItemType, or
// Topic, must be set.
type CreateInput struct {
	Name        string
	ItemID      primitive.ObjectID
	ItemType    models.UnitKind
	Topic       string
	Creator     models.Identity
	Assignments []AssignmentInput
}

// CreateResult reports what a tag action changed.
type CreateResult struct {
	Tag      models.Tag
	Created  bool
	Assigned []primitive.ObjectID
}

// NormalizeName trims and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func association(itemID primitive.ObjectID, itemType models.UnitKind, topic string, problems *[]string) tagstore.Association {
	hasItem := !itemID.IsZero() || itemType != ""
	switch {
	case hasItem:
		if itemID.IsZero() {
			*problems = append(*problems, "item_id is required")
		}
		if itemType == "" {
			*problems = append(*problems, "item_type is required")
		} else if !itemType.Valid() {
			*problems = append(*problems, fmt.Sprintf("item_type %q is not a unit type", itemType))
		}
		return tagstore.Association{Unit: &models.TaggedUnit{ItemID: itemID, UnitType: itemType}}
	case topic != "":
		t := topics.Normalize(topic)
		if !topics.Valid(t) {
			*problems = append(*problems, fmt.Sprintf("topic %q is not a known topic", topic))
		}
		return tagstore.Association{Topic: t}
	default:
		*problems = append(*problems, "item_id and item_type are required")
		return tagstore.Association{}
	}
}

// CreateTag attaches a name to a unit or topic, creating the tag when the
// name is new, and records leader assignments. Tag names are global: the
// same name from different users lands on the same tag.
func (e *Engine) CreateTag(ctx context.Context, in CreateInput) (CreateResult, error) {
	var problems []string
	name := NormalizeName(in.Name)
	if name == "" {
		problems = append(problems, "name is required")
	} else if len(name) > maxNameLen {
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", maxNameLen))
	}
	assoc := association(in.ItemID, in.ItemType, in.Topic, &problems)
	if len(problems) > 0 {
		return CreateResult{}, &ValidationError{Problems: problems}
	}

	ok, err := e.Identities.Exists(ctx, in.Creator)
	if err != nil {
		return CreateResult{}, err
	}
	if !ok {
		return CreateResult{}, ErrForbidden
	}
	if len(in.Assignments) > 0 && !in.Creator.IsLeader() {
		return CreateResult{}, ErrForbidden
	}

	if assoc.Unit != nil {
		exists, err := e.Units.Exists(ctx, assoc.Unit.UnitType, assoc.Unit.ItemID)
		if err != nil {
			return CreateResult{}, err
		}
		if !exists {
			return CreateResult{}, &ValidationError{Problems: []string{"item_id does not refer to an existing unit"}}
		}
	}

	var entries []models.TagAssignment
	if len(in.Assignments) > 0 {
		ids := make([]primitive.ObjectID, 0, len(in.Assignments))
		for _, a := range in.Assignments {
			ids = append(ids, a.MemberID)
		}
		inGroup, err := e.GroupMembers.InGroup(ctx, in.Creator.ID, ids)
		if err != nil {
			return CreateResult{}, err
		}
		seen := make(map[primitive.ObjectID]bool)
		for _, a := range in.Assignments {
			if !inGroup[a.MemberID] {
				problems = append(problems, fmt.Sprintf("member %s is not in your group", a.MemberID.Hex()))
				continue
			}
			if seen[a.MemberID] {
				continue
			}
			seen[a.MemberID] = true
			entries = append(entries, models.TagAssignment{
				MemberID:     a.MemberID,
				Instructions: htmlsanitize.Plain(a.Instructions),
			})
		}
		if len(problems) > 0 {
			return CreateResult{}, &ValidationError{Problems: problems}
		}
	}

	created, err := e.Tags.Attach(ctx, name, in.Creator, assoc)
	if errors.Is(err, tagstore.ErrConflict) {
		return CreateResult{}, ErrConflict
	}
	if err != nil {
		return CreateResult{}, fmt.Errorf("attach tag: %w", err)
	}

	var assigned []primitive.ObjectID
	if len(entries) > 0 {
		assigned, err = e.Tags.Assign(ctx, name, entries)
		if err != nil {
			return CreateResult{}, fmt.Errorf("assign tag: %w", err)
		}
	}

	tag, err := e.Tags.GetByName(ctx, name)
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Tag: tag, Created: created, Assigned: assigned}, nil
}

// RemoveInput identifies one association to strip from a tag.
type RemoveInput struct {
	Name     string
	ItemID   primitive.ObjectID
	ItemType models.UnitKind
	Topic    string
	Actor    models.Identity
}

// RemoveTag strips an association. Group members may only change tags
// they created. The tag is deleted once nothing is left on it.
func (e *Engine) RemoveTag(ctx context.Context, in RemoveInput) (deleted bool, err error) {
	var problems []string
	name := NormalizeName(in.Name)
	if name == "" {
		problems = append(problems, "name is required")
	}
	assoc := association(in.ItemID, in.ItemType, in.Topic, &problems)
	if len(problems) > 0 {
		return false, &ValidationError{Problems: problems}
	}

	tag, err := e.Tags.GetByName(ctx, name)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if in.Actor.IsGroupMember() && tag.Creator() != in.Actor {
		return false, ErrForbidden
	}

	if _, err := e.Tags.Detach(ctx, name, assoc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("detach tag: %w", err)
	}
	return e.Tags.DeleteIfEmpty(ctx, name)
}

// Unassign removes a member's assignment. Tag names are shared, so the
// caller need not have created the tag; the member must be in the
// caller's group.
func (e *Engine) Unassign(ctx context.Context, leader models.Identity, name string, memberID primitive.ObjectID) (deleted bool, err error) {
	if !leader.IsLeader() {
		return false, ErrForbidden
	}
	name = NormalizeName(name)
	if _, err := e.Tags.GetByName(ctx, name); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrNotFound
		}
		return false, err
	}
	inGroup, err := e.GroupMembers.InGroup(ctx, leader.ID, []primitive.ObjectID{memberID})
	if err != nil {
		return false, err
	}
	if !inGroup[memberID] {
		return false, ErrForbidden
	}
	removed, err := e.Tags.Unassign(ctx, name, memberID)
	if err != nil {
		return false, fmt.Errorf("unassign tag: %w", err)
	}
	if !removed {
		return false, ErrNotFound
	}
	return e.Tags.DeleteIfEmpty(ctx, name)
}

// CompleteAssignment marks the caller's assignment on a tag as done.
func (e *Engine) CompleteAssignment(ctx context.Context, member models.Identity, name string) error {
	err := e.Tags.CompleteAssignment(ctx, NormalizeName(name), member.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// AssignedTag is one tag assignment as seen by the assignee.
type AssignedTag struct {
	Name         string               `json:"name"`
	Instructions string               `json:"instructions"`
	Assignment   models.TagAssignment `json:"assignment"`
	Units        []models.UnitSummary `json:"units"`
	Topics       []string             `json:"topics"`
}

// Listing is the tags view for one identity.
type Listing struct {
	Created  []models.Tag  `json:"created"`
	Assigned []AssignedTag `json:"assigned"`
}

// ListForIdentity returns tags the identity created and tags assigned to it.
func (e *Engine) ListForIdentity(ctx context.Context, id models.Identity) (Listing, error) {
	created, err := e.Tags.ListCreatedBy(ctx, id)
	if err != nil {
		return Listing{}, err
	}
	assignedTags, err := e.Tags.ListAssignedTo(ctx, id.ID)
	if err != nil {
		return Listing{}, err
	}
	out := Listing{Created: created}
	for _, t := range assignedTags {
		a, ok := t.AssignmentFor(id.ID)
		if !ok {
			continue
		}
		units, err := e.Units.SummariesFor(ctx, t.AssociatedUnits)
		if err != nil {
			return Listing{}, err
		}
		out.Assigned = append(out.Assigned, AssignedTag{
			Name:         t.Name,
			Instructions: a.Instructions,
			Assignment:   a,
			Units:        units,
			Topics:       t.AssociatedTopics,
		})
	}
	return out, nil
}
