// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"members", ensureMembers},
		{"leaders", ensureLeaders},
		{"group_members", ensureGroupMembers},
		{"content", ensureContent},
		{"tags", ensureTags},
		{"promptset_registrations", ensureRegistrations},
		{"promptset_assignments", ensureAssignments},
		{"promptset_progress", ensureProgress},
		{"promptset_completions", ensureCompletions},
		{"dashboard_seen", ensureDashboardSeen},
		{"topic_suggestions", ensureTopicSuggestions},
		{"badge_drafts", ensureBadgeDrafts},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index unless one with the same key
// pattern and uniqueness exists. An index whose key pattern matches but
// whose name or uniqueness differs is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && desiredUnique != nil && *desiredUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func idx(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

/* -------------------------------------------------------------------------- */
/* Per-collection index sets                                                  */
/* -------------------------------------------------------------------------- */

func ensureMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("members"), []mongo.IndexModel{
		idx("uniq_members_email_ci", true, bson.E{Key: "email_ci", Value: 1}),
	})
}

func ensureLeaders(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("leaders"), []mongo.IndexModel{
		idx("uniq_leaders_email_ci", true, bson.E{Key: "email_ci", Value: 1}),
		idx("uniq_leaders_registration_code", true, bson.E{Key: "registration_code", Value: 1}),
		idx("idx_leaders_organization_ci", false, bson.E{Key: "organization_ci", Value: 1}),
	})
}

func ensureGroupMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("group_members"), []mongo.IndexModel{
		idx("uniq_group_members_email_ci", true, bson.E{Key: "email_ci", Value: 1}),
		idx("idx_group_members_group", false, bson.E{Key: "group_id", Value: 1}, bson.E{Key: "name", Value: 1}),
	})
}

func ensureContent(ctx context.Context, db *mongo.Database) error {
	var errs []string
	for _, k := range models.UnitKinds {
		err := ensureIndexSet(ctx, db.Collection(k.Collection()), []mongo.IndexModel{
			idx("idx_"+string(k)+"_author", false, bson.E{Key: "author.id", Value: 1}, bson.E{Key: "updated_at", Value: -1}),
			idx("idx_"+string(k)+"_status_topic", false, bson.E{Key: "status", Value: 1}, bson.E{Key: "main_topic", Value: 1}),
			idx("idx_"+string(k)+"_secondary_topics", false, bson.E{Key: "secondary_topics", Value: 1}),
		})
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureTags(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("tags"), []mongo.IndexModel{
		// Global uniqueness: tag names are shared across all users.
		idx("uniq_tags_name_ci", true, bson.E{Key: "name_ci", Value: 1}),
		idx("idx_tags_created_by", false, bson.E{Key: "created_by", Value: 1}),
		idx("idx_tags_assigned_member", false, bson.E{Key: "assigned_to.member_id", Value: 1}),
	})
}

func ensureRegistrations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("promptset_registrations"), []mongo.IndexModel{
		idx("uniq_registrations_identity_set", true,
			bson.E{Key: "identity.id", Value: 1}, bson.E{Key: "promptset_id", Value: 1}),
		idx("idx_registrations_identity_source", false,
			bson.E{Key: "identity.id", Value: 1}, bson.E{Key: "source", Value: 1}, bson.E{Key: "completed_at", Value: 1}),
	})
}

func ensureAssignments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("promptset_assignments"), []mongo.IndexModel{
		idx("idx_assignments_set_members", false,
			bson.E{Key: "promptset_id", Value: 1}, bson.E{Key: "member_ids", Value: 1}),
		idx("idx_assignments_leader", false, bson.E{Key: "leader_id", Value: 1}),
	})
}

func ensureProgress(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("promptset_progress"), []mongo.IndexModel{
		idx("uniq_progress_identity_set", true,
			bson.E{Key: "identity.id", Value: 1}, bson.E{Key: "promptset_id", Value: 1}),
	})
}

func ensureCompletions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("promptset_completions"), []mongo.IndexModel{
		// Exactly one completion per (identity, prompt set).
		idx("uniq_completions_identity_set", true,
			bson.E{Key: "identity.id", Value: 1}, bson.E{Key: "promptset_id", Value: 1}),
	})
}

func ensureDashboardSeen(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("dashboard_seen"), []mongo.IndexModel{
		idx("uniq_dashboard_seen_user_role", true,
			bson.E{Key: "user_id", Value: 1}, bson.E{Key: "role", Value: 1}),
	})
}

func ensureTopicSuggestions(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("topic_suggestions"), []mongo.IndexModel{
		idx("idx_topic_suggestions_group", false,
			bson.E{Key: "group_id", Value: 1}, bson.E{Key: "created_at", Value: -1}),
	})
}

func ensureBadgeDrafts(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("badge_drafts")
	if err := ensureIndexSet(ctx, coll, []mongo.IndexModel{
		idx("uniq_badge_drafts_token", true, bson.E{Key: "token", Value: 1}),
	}); err != nil {
		return err
	}
	// TTL: documents are removed once expires_at has passed.
	ttl := mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("ttl_badge_drafts_expires_at").SetExpireAfterSeconds(0),
	}
	return ensureIndexSet(ctx, coll, []mongo.IndexModel{ttl})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		idx("idx_audit_events_timestamp", false, bson.E{Key: "timestamp", Value: -1}),
		idx("idx_audit_events_identity", false,
			bson.E{Key: "identity.id", Value: 1}, bson.E{Key: "timestamp", Value: -1}),
		idx("idx_audit_events_group", false,
			bson.E{Key: "group_id", Value: 1}, bson.E{Key: "timestamp", Value: -1}),
		idx("idx_audit_events_type", false,
			bson.E{Key: "category", Value: 1}, bson.E{Key: "event_type", Value: 1}, bson.E{Key: "timestamp", Value: -1}),
	})
}
