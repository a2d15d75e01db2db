// Package schedule computes the linear pacing shown next to in-flight
// prompt sets. It is recomputed on every render from the target date and
// the remaining-prompt count; nothing is persisted.
package schedule

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// Schedule is the pacing for one prompt set.
type Schedule struct {
	RemainingDays             int       `json:"remaining_days"`
	Spread                    int       `json:"spread"` // days per remaining prompt
	RecommendedCompletionDate time.Time `json:"recommended_completion_date"`
}

// PromptSchedule returns the days left until target (rounded up, never
// negative), the whole days available per remaining prompt, and the date
// the next prompt should be done by (now + spread days).
func PromptSchedule(now, target time.Time, remainingPrompts int) Schedule {
	remainingDays := int(math.Ceil(target.Sub(now).Hours() / 24))
	if remainingDays < 0 {
		remainingDays = 0
	}

	spread := 0
	if remainingPrompts > 0 {
		spread = remainingDays / remainingPrompts
	}

	return Schedule{
		RemainingDays:             remainingDays,
		Spread:                    spread,
		RecommendedCompletionDate: now.Add(time.Duration(spread) * day),
	}
}
