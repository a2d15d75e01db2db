// internal/app/features/reports/rows.go
package reports

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/twennie/twennie/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// progressRow is one group member working one prompt set.
type progressRow struct {
	MemberName     string
	MemberEmail    string
	PromptSetTitle string
	Source         string
	Completed      int
	Percent        int
	TargetDate     time.Time
	CompletedAt    *time.Time
}

var header = []string{
	"Member", "Email", "Prompt Set", "Source",
	"Prompts Completed", "Percent", "Target Date", "Completed On",
}

const dateLayout = "2006-01-02"

func (p progressRow) record() []string {
	target := ""
	if !p.TargetDate.IsZero() {
		target = p.TargetDate.Format(dateLayout)
	}
	done := ""
	if p.CompletedAt != nil {
		done = p.CompletedAt.Format(dateLayout)
	}
	return []string{
		p.MemberName, p.MemberEmail, p.PromptSetTitle, p.Source,
		strconv.Itoa(p.Completed), strconv.Itoa(p.Percent), target, done,
	}
}

type pairKey struct {
	member    primitive.ObjectID
	promptSet primitive.ObjectID
}

// groupProgress builds one row per group member per registered prompt
// set. A completion record counts as every prompt done.
func (h *Handler) groupProgress(ctx context.Context, leaderID primitive.ObjectID) ([]progressRow, error) {
	members, err := h.GroupMembers.ListByGroup(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	byID := make(map[primitive.ObjectID]models.GroupMember, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}

	regs, err := h.Registrations.ListByMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	progs, err := h.Progress.ListByMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	comps, err := h.Completions.ListByMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	completed := make(map[pairKey]int, len(progs))
	for _, p := range progs {
		completed[pairKey{p.Identity.ID, p.PromptSetID}] = len(p.CompletedPrompts)
	}
	finished := make(map[pairKey]time.Time, len(comps))
	for _, c := range comps {
		finished[pairKey{c.Identity.ID, c.PromptSetID}] = c.CompletedAt
	}

	setIDs := make([]primitive.ObjectID, 0, len(regs))
	for _, r := range regs {
		setIDs = append(setIDs, r.PromptSetID)
	}
	titles, err := h.promptSetTitles(ctx, setIDs)
	if err != nil {
		return nil, err
	}

	rows := make([]progressRow, 0, len(regs))
	for _, r := range regs {
		m, ok := byID[r.Identity.ID]
		if !ok || r.Identity.Kind != models.KindGroupMember {
			continue
		}
		k := pairKey{r.Identity.ID, r.PromptSetID}
		row := progressRow{
			MemberName:     m.Name,
			MemberEmail:    m.Email,
			PromptSetTitle: titles[r.PromptSetID],
			Source:         r.Source,
			Completed:      completed[k],
			TargetDate:     r.TargetCompletionDate,
		}
		if at, ok := finished[k]; ok {
			row.Completed = models.CountedPrompts
			row.CompletedAt = &at
		}
		row.Percent = models.ProgressPercent(row.Completed)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := text.Fold(rows[i].MemberName), text.Fold(rows[j].MemberName)
		if a != b {
			return a < b
		}
		return strings.ToLower(rows[i].PromptSetTitle) < strings.ToLower(rows[j].PromptSetTitle)
	})
	return rows, nil
}

func (h *Handler) promptSetTitles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sums, err := h.Units.Summaries(ctx, []models.UnitKind{models.UnitPromptSet}, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, s := range sums {
		out[s.ID] = s.Title
	}
	return out, nil
}
