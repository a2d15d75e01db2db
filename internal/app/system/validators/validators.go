// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/twennie/twennie/internal/app/system/topics"
	"github.com/twennie/twennie/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and attaches JSON-Schema
// validators. Deployments that reject collMod are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Identity collections
	ensure("members", accountSchema(bson.A{models.MembershipFree, models.MembershipContributor, models.MembershipPaid}))
	ensure("leaders", leadersSchema())
	ensure("group_members", groupMembersSchema())

	// Content, one collection per unit kind
	for _, k := range models.UnitKinds {
		ensure(k.Collection(), unitSchema(k))
	}

	ensure("tags", tagsSchema())
	ensure("promptset_registrations", registrationsSchema())
	ensure("promptset_assignments", assignmentsSchema())
	ensure("promptset_progress", progressSchema())
	ensure("promptset_completions", completionsSchema())

	ensure("dashboard_seen", nil)
	ensure("topic_suggestions", nil)
	ensure("badge_drafts", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func identitySchema() bson.M {
	return bson.M{
		"bsonType": "object",
		"required": bson.A{"kind", "id"},
		"properties": bson.M{
			"kind": bson.M{"enum": bson.A{string(models.KindMember), string(models.KindLeader), string(models.KindGroupMember)}},
			"id":   bson.M{"bsonType": "objectId"},
		},
	}
}

func accountSchema(membershipTypes bson.A) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "email_ci", "password_hash", "membership_type", "status"},
			"properties": bson.M{
				"name":            nonBlank,
				"email":           nonBlank,
				"email_ci":        nonBlank,
				"password_hash":   nonBlank,
				"membership_type": bson.M{"enum": membershipTypes},
				"status":          bson.M{"enum": bson.A{models.StatusActive, models.StatusInactive}},
			},
		},
	}
}

func leadersSchema() bson.M {
	s := accountSchema(bson.A{"leader"})
	js := s["$jsonSchema"].(bson.M)
	js["required"] = append(js["required"].(bson.A), "registration_code", "group_size")
	props := js["properties"].(bson.M)
	props["registration_code"] = nonBlank
	props["group_size"] = bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": models.MaxGroupSize}
	return s
}

func groupMembersSchema() bson.M {
	s := accountSchema(bson.A{"group_member"})
	js := s["$jsonSchema"].(bson.M)
	js["required"] = append(js["required"].(bson.A), "group_id")
	js["properties"].(bson.M)["group_id"] = bson.M{"bsonType": "objectId"}
	return s
}

func unitSchema(k models.UnitKind) bson.M {
	topicEnum := bson.A{}
	for _, t := range topics.All {
		topicEnum = append(topicEnum, t)
	}
	props := bson.M{
		k.TitleField():     nonBlank,
		"main_topic":       bson.M{"enum": topicEnum},
		"secondary_topics": bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"enum": topicEnum}},
		"visibility": bson.M{"enum": bson.A{
			string(models.VisibilityTeam), string(models.VisibilityOrganization), string(models.VisibilityAllMembers),
		}},
		"status": bson.M{"enum": bson.A{models.UnitStatusInProgress, models.UnitStatusSubmitted, models.UnitStatusApproved}},
		"author": bson.M{
			"bsonType":   "object",
			"required":   bson.A{"id"},
			"properties": bson.M{"id": bson.M{"bsonType": "objectId"}},
		},
	}
	if k == models.UnitPromptSet {
		props["prompts"] = bson.M{"bsonType": "array", "minItems": models.PromptCount, "maxItems": models.PromptCount}
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   bson.A{k.TitleField(), "main_topic", "visibility", "author", "status"},
			"properties": props,
		},
	}
}

func tagsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "created_by", "created_by_model"},
			"properties": bson.M{
				"name":             nonBlank,
				"name_ci":          nonBlank,
				"created_by":       bson.M{"bsonType": "objectId"},
				"created_by_model": bson.M{"enum": bson.A{string(models.KindMember), string(models.KindLeader), string(models.KindGroupMember)}},
				"associated_units": bson.M{"bsonType": bson.A{"array", "null"}},
				"associated_topics": bson.M{"bsonType": bson.A{"array", "null"}, "items": bson.M{"bsonType": "string"}},
				"assigned_to": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType":   "object",
						"required":   bson.A{"member_id"},
						"properties": bson.M{"member_id": bson.M{"bsonType": "objectId"}},
					},
				},
			},
		},
	}
}

func registrationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"identity", "promptset_id", "source"},
			"properties": bson.M{
				"identity":     identitySchema(),
				"promptset_id": bson.M{"bsonType": "objectId"},
				"source":       bson.M{"enum": bson.A{models.RegistrationSelf, models.RegistrationAssigned}},
			},
		},
	}
}

func assignmentsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"leader_id", "promptset_id", "member_ids"},
			"properties": bson.M{
				"leader_id":    bson.M{"bsonType": "objectId"},
				"promptset_id": bson.M{"bsonType": "objectId"},
				"member_ids":   bson.M{"bsonType": "array", "minItems": 1, "items": bson.M{"bsonType": "objectId"}},
			},
		},
	}
}

func progressSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"identity", "promptset_id", "current_prompt_index"},
			"properties": bson.M{
				"identity":             identitySchema(),
				"promptset_id":         bson.M{"bsonType": "objectId"},
				"current_prompt_index": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": models.PromptCount},
			},
		},
	}
}

func completionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"identity", "promptset_id", "completed_at"},
			"properties": bson.M{
				"identity":     identitySchema(),
				"promptset_id": bson.M{"bsonType": "objectId"},
				"completed_at": bson.M{"bsonType": "date"},
			},
		},
	}
}
