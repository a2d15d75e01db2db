// internal/app/features/promptsets/overview.go
package promptsets

import (
	"context"

	"github.com/twennie/twennie/internal/app/system/schedule"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InFlight is one prompt set in progress. Registered and assigned sets
// carry live pacing.
type InFlight struct {
	PromptSetID          primitive.ObjectID `json:"promptset_id"`
	Title                string             `json:"title"`
	Source               string             `json:"source"`
	Frequency            string             `json:"frequency"`
	TargetCompletionDate string             `json:"target_completion_date"`
	CurrentPrompt        int                `json:"current_prompt"`
	Completed            int                `json:"completed"`
	Percent              int                `json:"percent"`
	Schedule             schedule.Schedule  `json:"schedule"`
}

// Finished is one completed prompt set.
type Finished struct {
	PromptSetID primitive.ObjectID `json:"promptset_id"`
	Title       string             `json:"title"`
	Badge       models.Badge       `json:"badge"`
	CompletedAt string             `json:"completed_at"`
}

// SourceUnregistered marks progress started without a registration. It
// has no plan, so no pacing, and it does not count toward the
// self-registration cap.
const SourceUnregistered = "unregistered"

// Overview is an identity's prompt-set standing.
type Overview struct {
	InFlight  []InFlight `json:"in_flight"`
	Completed []Finished `json:"completed"`
}

const dateLayout = "2006-01-02"

// Overview lists the identity's open registrations with progress and
// pacing, progress started without a registration, and its completions
// with badges.
func (l *Lifecycle) Overview(ctx context.Context, id models.Identity) (Overview, error) {
	regs, err := l.Registrations.ListByIdentity(ctx, id)
	if err != nil {
		return Overview{}, err
	}
	progress, err := l.Progress.ListByIdentity(ctx, id)
	if err != nil {
		return Overview{}, err
	}
	comps, err := l.Completions.ListByIdentity(ctx, id)
	if err != nil {
		return Overview{}, err
	}

	byPS := make(map[primitive.ObjectID]models.PromptSetProgress, len(progress))
	for _, p := range progress {
		byPS[p.PromptSetID] = p
	}
	done := make(map[primitive.ObjectID]bool, len(comps))
	var refs []models.TaggedUnit
	for _, c := range comps {
		done[c.PromptSetID] = true
		refs = append(refs, models.TaggedUnit{ItemID: c.PromptSetID, UnitType: models.UnitPromptSet})
	}
	registered := make(map[primitive.ObjectID]bool, len(regs))
	for _, r := range regs {
		registered[r.PromptSetID] = true
		refs = append(refs, models.TaggedUnit{ItemID: r.PromptSetID, UnitType: models.UnitPromptSet})
	}
	for _, p := range progress {
		if !registered[p.PromptSetID] {
			refs = append(refs, models.TaggedUnit{ItemID: p.PromptSetID, UnitType: models.UnitPromptSet})
		}
	}
	titles, err := l.titles(ctx, refs)
	if err != nil {
		return Overview{}, err
	}

	now := l.Now()
	var out Overview
	for _, r := range regs {
		if done[r.PromptSetID] || r.CompletedAt != nil {
			continue
		}
		p := byPS[r.PromptSetID]
		remaining := p.Remaining()
		out.InFlight = append(out.InFlight, InFlight{
			PromptSetID:          r.PromptSetID,
			Title:                titles[r.PromptSetID],
			Source:               r.Source,
			Frequency:            r.Frequency,
			TargetCompletionDate: r.TargetCompletionDate.Format(dateLayout),
			CurrentPrompt:        p.CurrentPromptIndex,
			Completed:            len(p.CompletedPrompts),
			Percent:              models.ProgressPercent(len(p.CompletedPrompts)),
			Schedule:             schedule.PromptSchedule(now, r.TargetCompletionDate, remaining),
		})
	}
	for _, p := range progress {
		if registered[p.PromptSetID] || done[p.PromptSetID] {
			continue
		}
		out.InFlight = append(out.InFlight, InFlight{
			PromptSetID:   p.PromptSetID,
			Title:         titles[p.PromptSetID],
			Source:        SourceUnregistered,
			CurrentPrompt: p.CurrentPromptIndex,
			Completed:     len(p.CompletedPrompts),
			Percent:       models.ProgressPercent(len(p.CompletedPrompts)),
		})
	}
	for _, c := range comps {
		out.Completed = append(out.Completed, Finished{
			PromptSetID: c.PromptSetID,
			Title:       titles[c.PromptSetID],
			Badge:       c.EarnedBadge,
			CompletedAt: c.CompletedAt.Format(dateLayout),
		})
	}
	return out, nil
}

func (l *Lifecycle) titles(ctx context.Context, refs []models.TaggedUnit) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	sums, err := l.Units.SummariesFor(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, s := range sums {
		out[s.ID] = s.Title
	}
	return out, nil
}
