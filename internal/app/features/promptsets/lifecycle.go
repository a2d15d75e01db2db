// internal/app/features/promptsets/lifecycle.go
package promptsets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	badgedraftstore "github.com/twennie/twennie/internal/app/store/badgedrafts"
	completionstore "github.com/twennie/twennie/internal/app/store/completions"
	groupmemberstore "github.com/twennie/twennie/internal/app/store/groupmembers"
	progressstore "github.com/twennie/twennie/internal/app/store/progress"
	promptassignstore "github.com/twennie/twennie/internal/app/store/promptassign"
	registrationstore "github.com/twennie/twennie/internal/app/store/registrations"
	unitstore "github.com/twennie/twennie/internal/app/store/units"
	"github.com/twennie/twennie/internal/app/system/htmlsanitize"
	"github.com/twennie/twennie/internal/app/system/txn"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("prompt set not found")
	ErrForbidden         = errors.New("only leaders can assign prompt sets")
	ErrNotRegistered     = errors.New("you are not registered for this prompt set")
	ErrAlreadyRegistered = errors.New("you are already registered for this prompt set")
	ErrAlreadyCompleted  = errors.New("you have already completed this prompt set")
	ErrRegistrationCap   = fmt.Errorf("you can be registered for at most %d prompt sets at a time", models.MaxActiveRegistrations)
	ErrAlreadyAssigned   = errors.New("prompt set already assigned")
	ErrStale             = errors.New("this prompt was already submitted; reload and try again")
)

// ValidationError lists every problem with a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid prompt set request: " + strings.Join(e.Problems, "; ")
}

// AssignedError names the members that already hold an assignment for the
// prompt set. It matches ErrAlreadyAssigned.
type AssignedError struct {
	Names []string
}

func (e *AssignedError) Error() string {
	return "prompt set already assigned to: " + strings.Join(e.Names, ", ")
}

func (e *AssignedError) Is(target error) bool { return target == ErrAlreadyAssigned }

// Lifecycle drives one identity's path through a prompt set:
// unregistered, registered at the introduction, in progress, completed.
type Lifecycle struct {
	DB            *mongo.Database
	Log           *zap.Logger
	Units         *unitstore.Store
	Registrations *registrationstore.Store
	Assignments   *promptassignstore.Store
	Progress      *progressstore.Store
	Completions   *completionstore.Store
	GroupMembers  *groupmemberstore.Store
	Drafts        *badgedraftstore.Store

	Now func() time.Time
}

// NewLifecycle wires a Lifecycle to db.
func NewLifecycle(db *mongo.Database, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		DB:            db,
		Log:           logger,
		Units:         unitstore.New(db),
		Registrations: registrationstore.New(db),
		Assignments:   promptassignstore.New(db),
		Progress:      progressstore.New(db),
		Completions:   completionstore.New(db),
		GroupMembers:  groupmemberstore.New(db),
		Drafts:        badgedraftstore.New(db),
		Now:           func() time.Time { return time.Now().UTC() },
	}
}

// Plan is the pacing a registration or assignment commits to.
type Plan struct {
	Frequency string
	Target    time.Time
}

func (l *Lifecycle) checkPlan(p Plan, problems *[]string) {
	if strings.TrimSpace(p.Frequency) == "" {
		*problems = append(*problems, "frequency is required")
	}
	if p.Target.IsZero() {
		*problems = append(*problems, "target_completion_date is required")
		return
	}
	today := l.Now().Truncate(24 * time.Hour)
	if p.Target.Before(today) {
		*problems = append(*problems, "target_completion_date must not be in the past")
	}
}

// promptSet loads an approved prompt set.
func (l *Lifecycle) promptSet(ctx context.Context, id primitive.ObjectID) (models.PromptSet, error) {
	ps, err := l.Units.GetPromptSet(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PromptSet{}, ErrNotFound
	}
	if err != nil {
		return models.PromptSet{}, err
	}
	if ps.Status != models.UnitStatusApproved {
		return models.PromptSet{}, ErrNotFound
	}
	return ps, nil
}

// Register creates a self registration and its progress row at the
// introduction. An identity may hold at most MaxActiveRegistrations
// uncompleted self registrations; assigned sets are not counted.
func (l *Lifecycle) Register(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID, plan Plan) (models.PromptSetRegistration, error) {
	var problems []string
	l.checkPlan(plan, &problems)
	if len(problems) > 0 {
		return models.PromptSetRegistration{}, &ValidationError{Problems: problems}
	}
	if _, err := l.promptSet(ctx, promptSetID); err != nil {
		return models.PromptSetRegistration{}, err
	}

	done, err := l.Completions.Exists(ctx, id, promptSetID)
	if err != nil {
		return models.PromptSetRegistration{}, err
	}
	if done {
		return models.PromptSetRegistration{}, ErrAlreadyCompleted
	}
	if _, err := l.Registrations.Get(ctx, id, promptSetID); err == nil {
		return models.PromptSetRegistration{}, ErrAlreadyRegistered
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.PromptSetRegistration{}, err
	}

	active, err := l.Registrations.CountActiveSelf(ctx, id)
	if err != nil {
		return models.PromptSetRegistration{}, err
	}
	if active >= models.MaxActiveRegistrations {
		return models.PromptSetRegistration{}, ErrRegistrationCap
	}

	var reg models.PromptSetRegistration
	err = txn.Run(ctx, l.DB, l.Log, func(ctx context.Context) error {
		var err error
		reg, err = l.Registrations.Create(ctx, models.PromptSetRegistration{
			Identity:             id,
			PromptSetID:          promptSetID,
			Source:               models.RegistrationSelf,
			Frequency:            strings.TrimSpace(plan.Frequency),
			TargetCompletionDate: plan.Target,
		})
		if err != nil {
			return err
		}
		_, err = l.Progress.Ensure(ctx, id, promptSetID, 0)
		return err
	})
	if errors.Is(err, registrationstore.ErrDuplicate) {
		return models.PromptSetRegistration{}, ErrAlreadyRegistered
	}
	if err != nil {
		return models.PromptSetRegistration{}, fmt.Errorf("register: %w", err)
	}
	return reg, nil
}

// AssignInput is a leader's batch assignment of one prompt set.
type AssignInput struct {
	Leader       models.Identity
	PromptSetID  primitive.ObjectID
	MemberIDs    []primitive.ObjectID
	Plan         Plan
	Instructions string
}

// Assign records one assignment row for the batch, then gives every
// member a progress row and an assigned registration unless they already
// have them. Members who already completed the set get neither. The batch
// is rejected as a whole when any member already holds an assignment for
// the set.
func (l *Lifecycle) Assign(ctx context.Context, in AssignInput) (models.AssignPromptSet, error) {
	if !in.Leader.IsLeader() {
		return models.AssignPromptSet{}, ErrForbidden
	}

	var problems []string
	members := dedupe(in.MemberIDs)
	if len(members) == 0 {
		problems = append(problems, "at least one member is required")
	}
	l.checkPlan(in.Plan, &problems)
	if len(problems) > 0 {
		return models.AssignPromptSet{}, &ValidationError{Problems: problems}
	}
	if _, err := l.promptSet(ctx, in.PromptSetID); err != nil {
		return models.AssignPromptSet{}, err
	}

	group, err := l.GroupMembers.ListByGroup(ctx, in.Leader.ID)
	if err != nil {
		return models.AssignPromptSet{}, err
	}
	names := make(map[primitive.ObjectID]string, len(group))
	for _, gm := range group {
		names[gm.ID] = gm.Name
	}
	for _, id := range members {
		if _, ok := names[id]; !ok {
			problems = append(problems, fmt.Sprintf("member %s is not in your group", id.Hex()))
		}
	}
	if len(problems) > 0 {
		return models.AssignPromptSet{}, &ValidationError{Problems: problems}
	}

	dups, err := l.Assignments.AlreadyAssigned(ctx, in.PromptSetID, members)
	if err != nil {
		return models.AssignPromptSet{}, err
	}
	if len(dups) > 0 {
		ae := &AssignedError{}
		for _, id := range dups {
			ae.Names = append(ae.Names, names[id])
		}
		return models.AssignPromptSet{}, ae
	}

	var out models.AssignPromptSet
	err = txn.Run(ctx, l.DB, l.Log, func(ctx context.Context) error {
		var err error
		out, err = l.Assignments.Create(ctx, models.AssignPromptSet{
			LeaderID:             in.Leader.ID,
			PromptSetID:          in.PromptSetID,
			MemberIDs:            members,
			Frequency:            strings.TrimSpace(in.Plan.Frequency),
			TargetCompletionDate: in.Plan.Target,
			Instructions:         htmlsanitize.Rich(in.Instructions),
		})
		if err != nil {
			return err
		}
		for _, mid := range members {
			who := models.Identity{Kind: models.KindGroupMember, ID: mid}
			done, err := l.Completions.Exists(ctx, who, in.PromptSetID)
			if err != nil {
				return err
			}
			if done {
				continue
			}
			if _, err := l.Progress.Ensure(ctx, who, in.PromptSetID, 0); err != nil {
				return err
			}
			if _, err := l.Registrations.EnsureAssigned(ctx, who, in.PromptSetID, out.Frequency, out.TargetCompletionDate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.AssignPromptSet{}, fmt.Errorf("assign: %w", err)
	}
	return out, nil
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Start outcomes.
const (
	StartCreated    = "started"
	StartAdvanced   = "advanced"
	StartInProgress = "in_progress"
)

// Start moves the identity past the introduction. With no progress row
// one is created at prompt 1; a row at the introduction is advanced to 1;
// anything else is left alone.
func (l *Lifecycle) Start(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) (string, models.PromptSetProgress, error) {
	if _, err := l.promptSet(ctx, promptSetID); err != nil {
		return "", models.PromptSetProgress{}, err
	}
	done, err := l.Completions.Exists(ctx, id, promptSetID)
	if err != nil {
		return "", models.PromptSetProgress{}, err
	}
	if done {
		return "", models.PromptSetProgress{}, ErrAlreadyCompleted
	}

	outcome := StartInProgress
	created, err := l.Progress.Ensure(ctx, id, promptSetID, 1)
	if err != nil {
		return "", models.PromptSetProgress{}, err
	}
	if created {
		outcome = StartCreated
	} else {
		moved, err := l.Progress.AdvanceFromIntro(ctx, id, promptSetID)
		if err != nil {
			return "", models.PromptSetProgress{}, err
		}
		if moved {
			outcome = StartAdvanced
		}
	}

	p, err := l.Progress.Get(ctx, id, promptSetID)
	if err != nil {
		return "", models.PromptSetProgress{}, err
	}
	return outcome, p, nil
}

// SubmitResult carries either the updated progress or, once the last
// counted prompt is done, the completion that replaced it.
type SubmitResult struct {
	Progress   *models.PromptSetProgress   `json:"progress,omitempty"`
	Completion *models.PromptSetCompletion `json:"completion,omitempty"`
}

// SubmitNotes records the note for the current prompt and advances the
// cursor. A cursor still on the introduction is started first. When the
// completed count reaches CountedPrompts the completion is written and the
// progress removed in the same transaction.
func (l *Lifecycle) SubmitNotes(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID, note string) (SubmitResult, error) {
	note = htmlsanitize.Plain(note)
	if note == "" {
		return SubmitResult{}, &ValidationError{Problems: []string{"notes are required"}}
	}
	ps, err := l.promptSet(ctx, promptSetID)
	if err != nil {
		return SubmitResult{}, err
	}

	p, err := l.Progress.Get(ctx, id, promptSetID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		done, err := l.Completions.Exists(ctx, id, promptSetID)
		if err != nil {
			return SubmitResult{}, err
		}
		if done {
			return SubmitResult{}, ErrAlreadyCompleted
		}
		return SubmitResult{}, ErrNotRegistered
	}
	if err != nil {
		return SubmitResult{}, err
	}

	cursor := p.CurrentPromptIndex
	if cursor == 0 {
		if _, err := l.Progress.AdvanceFromIntro(ctx, id, promptSetID); err != nil {
			return SubmitResult{}, err
		}
		cursor = 1
	}

	var res SubmitResult
	err = txn.Run(ctx, l.DB, l.Log, func(ctx context.Context) error {
		res = SubmitResult{}
		cur := p
		// A row that already holds every counted prompt only needs its
		// completion written.
		if len(p.CompletedPrompts) < models.CountedPrompts {
			var err error
			cur, err = l.Progress.RecordNote(ctx, id, promptSetID, cursor, note)
			if err != nil {
				return err
			}
		}
		if len(cur.CompletedPrompts) < models.CountedPrompts {
			res.Progress = &cur
			return nil
		}

		c := models.PromptSetCompletion{
			Identity:    id,
			PromptSetID: promptSetID,
			EarnedBadge: ps.Badge,
			Notes:       cur.Notes,
			CompletedAt: l.Now(),
		}
		if _, err := l.Completions.Record(ctx, c); err != nil {
			return err
		}
		if _, err := l.Progress.Delete(ctx, id, promptSetID); err != nil {
			return err
		}
		if err := l.Registrations.MarkCompleted(ctx, id, promptSetID, c.CompletedAt); err != nil {
			return err
		}
		stored, err := l.Completions.Get(ctx, id, promptSetID)
		if err != nil {
			return err
		}
		res.Completion = &stored
		return nil
	})
	if errors.Is(err, progressstore.ErrStale) {
		return SubmitResult{}, ErrStale
	}
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit notes: %w", err)
	}
	if res.Completion != nil {
		l.Log.Info("prompt set completed",
			zap.String("identity", id.String()),
			zap.String("promptset_id", promptSetID.Hex()),
			zap.String("badge", res.Completion.EarnedBadge.Name))
	}
	return res, nil
}

// Unregister deletes the progress and then the registration. Completions
// are never touched.
func (l *Lifecycle) Unregister(ctx context.Context, id models.Identity, promptSetID primitive.ObjectID) error {
	hadProgress, err := l.Progress.Delete(ctx, id, promptSetID)
	if err != nil {
		return err
	}
	hadReg, err := l.Registrations.Delete(ctx, id, promptSetID)
	if err != nil {
		return err
	}
	if !hadProgress && !hadReg {
		return ErrNotRegistered
	}
	return nil
}
