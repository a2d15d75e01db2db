// internal/domain/models/promptset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// PromptCount is the fixed number of prompts in every prompt set.
	// Prompt 0 is the introduction.
	PromptCount = 21

	// CountedPrompts is the number of prompts that must be completed to
	// finish a set and the denominator for progress percentages.
	CountedPrompts = PromptCount - 1

	// MaxActiveRegistrations caps concurrent self registrations per identity.
	MaxActiveRegistrations = 3
)

// Prompt is one entry of a prompt set.
type Prompt struct {
	Headline string `bson:"headline" json:"headline"`
	Text     string `bson:"text" json:"text"`
}

// Badge is awarded when a prompt set is completed.
type Badge struct {
	Image string `bson:"image" json:"image"`
	Name  string `bson:"name" json:"name"`
}

// PromptSet is the guided-sequence content variant.
type PromptSet struct {
	UnitBase           `bson:",inline"`
	PromptSetTitle     string              `bson:"promptset_title" json:"promptset_title"`
	Purpose            string              `bson:"purpose" json:"purpose"`
	SuggestedFrequency string              `bson:"suggested_frequency" json:"suggested_frequency"`
	Badge              Badge               `bson:"badge" json:"badge"`
	Prompts            [PromptCount]Prompt `bson:"prompts" json:"prompts"`
}

func (p *PromptSet) Kind() UnitKind { return UnitPromptSet }
func (p *PromptSet) Title() string  { return p.PromptSetTitle }

// Registration sources.
const (
	RegistrationSelf     = "self"
	RegistrationAssigned = "assigned"
)

// PromptSetRegistration records that an identity intends to work through
// a prompt set. Only self registrations count toward the active cap.
type PromptSetRegistration struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identity             Identity           `bson:"identity" json:"identity"`
	PromptSetID          primitive.ObjectID `bson:"promptset_id" json:"promptset_id"`
	Source               string             `bson:"source" json:"source"` // self | assigned
	Frequency            string             `bson:"frequency" json:"frequency"`
	TargetCompletionDate time.Time          `bson:"target_completion_date" json:"target_completion_date"`
	CompletedAt          *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt            time.Time          `bson:"created_at" json:"created_at"`
}

// AssignPromptSet is a leader's assignment of one prompt set to a batch of
// group members.
type AssignPromptSet struct {
	ID                   primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	LeaderID             primitive.ObjectID   `bson:"leader_id" json:"leader_id"`
	PromptSetID          primitive.ObjectID   `bson:"promptset_id" json:"promptset_id"`
	MemberIDs            []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	Frequency            string               `bson:"frequency" json:"frequency"`
	TargetCompletionDate time.Time            `bson:"target_completion_date" json:"target_completion_date"`
	Instructions         string               `bson:"instructions,omitempty" json:"instructions,omitempty"`
	CreatedAt            time.Time            `bson:"created_at" json:"created_at"`
}

// PromptSetProgress is the mutable cursor for one identity working one set.
// Notes are index-aligned with CompletedPrompts.
type PromptSetProgress struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identity           Identity           `bson:"identity" json:"identity"`
	PromptSetID        primitive.ObjectID `bson:"promptset_id" json:"promptset_id"`
	CurrentPromptIndex int                `bson:"current_prompt_index" json:"current_prompt_index"`
	CompletedPrompts   []int              `bson:"completed_prompts" json:"completed_prompts"`
	Notes              []string           `bson:"notes" json:"notes"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// Remaining returns how many counted prompts are still open.
func (p *PromptSetProgress) Remaining() int {
	n := CountedPrompts - len(p.CompletedPrompts)
	if n < 0 {
		return 0
	}
	return n
}

// PromptSetCompletion is the terminal record of a finished prompt set.
type PromptSetCompletion struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identity    Identity           `bson:"identity" json:"identity"`
	PromptSetID primitive.ObjectID `bson:"promptset_id" json:"promptset_id"`
	EarnedBadge Badge              `bson:"earned_badge" json:"earned_badge"`
	Notes       []string           `bson:"notes" json:"notes"`
	CompletedAt time.Time          `bson:"completed_at" json:"completed_at"`
}

// ProgressPercent converts a completed-prompt count into a whole percentage
// of CountedPrompts. Every screen uses this one denominator.
func ProgressPercent(completed int) int {
	if completed <= 0 {
		return 0
	}
	if completed >= CountedPrompts {
		return 100
	}
	return completed * 100 / CountedPrompts
}

// BadgeDraft carries a badge picked on one screen to the prompt-set form
// on the next, keyed by an opaque token. Drafts expire via a TTL index.
type BadgeDraft struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Token     string             `bson:"token" json:"token"`
	Identity  Identity           `bson:"identity" json:"-"`
	Badge     Badge              `bson:"badge" json:"badge"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}
