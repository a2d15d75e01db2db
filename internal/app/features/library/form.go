// internal/app/features/library/form.go
package library

import (
	"fmt"
	"strings"
	"time"

	"github.com/twennie/twennie/internal/app/features/promptsets"
	"github.com/twennie/twennie/internal/app/system/htmlsanitize"
	"github.com/twennie/twennie/internal/app/system/inputval"
	"github.com/twennie/twennie/internal/app/system/topics"
	"github.com/twennie/twennie/internal/domain/models"
)

const dateLayout = "2006-01-02"

// unitForm is the flat request body for creating or updating a unit of
// any kind. Fields that do not belong to the kind are ignored.
type unitForm struct {
	Title           string   `json:"title" validate:"required,max=200" label:"Title"`
	MainTopic       string   `json:"main_topic" validate:"required,topic" label:"Main topic"`
	SecondaryTopics []string `json:"secondary_topics" validate:"max=5,dive,topic" label:"Secondary topics"`
	Visibility      string   `json:"visibility" validate:"required,oneof=team_only organization_only all_members" label:"Visibility"`

	Summary      string `json:"summary" validate:"max=1000" label:"Summary"`
	Content      string `json:"content" validate:"max=100000" label:"Content"`
	Description  string `json:"description" validate:"max=5000" label:"Description"`
	VideoURL     string `json:"video_url" validate:"omitempty,httpurl,max=500" label:"Video URL"`
	Interviewee  string `json:"interviewee" validate:"max=200" label:"Interviewee"`
	Goal         string `json:"goal" validate:"max=1000" label:"Goal"`
	Instructions string `json:"instructions" validate:"max=20000" label:"Instructions"`

	UnitType     string `json:"unit_type" label:"Unit type"`
	ExpectedDate string `json:"expected_date" label:"Expected date"`

	Purpose            string          `json:"purpose" validate:"max=2000" label:"Purpose"`
	SuggestedFrequency string          `json:"suggested_frequency" validate:"max=100" label:"Suggested frequency"`
	BadgeToken         string          `json:"badge_token" label:"Badge token"`
	Badge              *models.Badge   `json:"badge" label:"Badge"`
	Prompts            []models.Prompt `json:"prompts" label:"Prompts"`
}

// clean sanitizes markup: titles and short fields lose every tag, body
// fields keep formatting.
func (f *unitForm) clean() {
	f.Title = htmlsanitize.Plain(f.Title)
	f.MainTopic = topics.Normalize(f.MainTopic)
	for i, t := range f.SecondaryTopics {
		f.SecondaryTopics[i] = topics.Normalize(t)
	}
	f.Visibility = strings.TrimSpace(f.Visibility)

	f.Summary = htmlsanitize.Plain(f.Summary)
	f.Content = htmlsanitize.Rich(f.Content)
	f.Description = htmlsanitize.Rich(f.Description)
	f.VideoURL = strings.TrimSpace(f.VideoURL)
	f.Interviewee = htmlsanitize.Plain(f.Interviewee)
	f.Goal = htmlsanitize.Plain(f.Goal)
	f.Instructions = htmlsanitize.Rich(f.Instructions)
	f.UnitType = strings.TrimSpace(f.UnitType)
	f.ExpectedDate = strings.TrimSpace(f.ExpectedDate)
	f.Purpose = htmlsanitize.Plain(f.Purpose)
	f.SuggestedFrequency = htmlsanitize.Plain(f.SuggestedFrequency)
	f.BadgeToken = strings.TrimSpace(f.BadgeToken)
	for i, p := range f.Prompts {
		f.Prompts[i] = models.Prompt{Headline: htmlsanitize.Plain(p.Headline), Text: htmlsanitize.Rich(p.Text)}
	}
}

// validate checks the shared rules and then the kind's own required
// fields. The badge of a prompt set is checked separately because it may
// come from a draft.
func (f *unitForm) validate(k models.UnitKind) []string {
	problems := inputval.Validate(f).Messages()
	require := func(v, label string) {
		if v == "" {
			problems = append(problems, label+" is required.")
		}
	}
	switch k {
	case models.UnitArticle:
		require(f.Content, "Content")
	case models.UnitVideo:
		require(f.VideoURL, "Video URL")
	case models.UnitInterview:
		require(f.Interviewee, "Interviewee")
		require(f.Content, "Content")
	case models.UnitExercise:
		require(f.Instructions, "Instructions")
	case models.UnitTemplate:
		require(f.Content, "Content")
	case models.UnitUpcoming:
		if !isLibraryKind(models.UnitKind(f.UnitType)) {
			problems = append(problems, "Unit type must name a library content type.")
		}
		if f.ExpectedDate != "" {
			if _, err := time.Parse(dateLayout, f.ExpectedDate); err != nil {
				problems = append(problems, "Expected date must be YYYY-MM-DD.")
			}
		}
	case models.UnitPromptSet:
		require(f.Purpose, "Purpose")
		require(f.SuggestedFrequency, "Suggested frequency")
		if len(f.Prompts) != models.PromptCount {
			problems = append(problems, fmt.Sprintf("A prompt set needs exactly %d prompts.", models.PromptCount))
			break
		}
		for i, p := range f.Prompts {
			if p.Headline == "" || p.Text == "" {
				problems = append(problems, fmt.Sprintf("Prompt %d needs a headline and text.", i))
			}
		}
	}
	return problems
}

func isLibraryKind(k models.UnitKind) bool {
	for _, lk := range models.LibraryKinds {
		if lk == k {
			return true
		}
	}
	return false
}

// build makes a unit of kind k from a validated form. badge is only used
// for prompt sets.
func (f *unitForm) build(k models.UnitKind, base models.UnitBase, badge models.Badge) models.Unit {
	base.MainTopic = f.MainTopic
	base.SecondaryTopics, _ = topics.FilterValid(f.SecondaryTopics)
	base.Visibility = models.Visibility(f.Visibility)

	switch k {
	case models.UnitArticle:
		return &models.Article{UnitBase: base, ArticleTitle: f.Title, Summary: f.Summary, Content: f.Content}
	case models.UnitVideo:
		return &models.Video{UnitBase: base, VideoTitle: f.Title, VideoURL: f.VideoURL, Description: f.Description}
	case models.UnitInterview:
		return &models.Interview{UnitBase: base, InterviewTitle: f.Title, Interviewee: f.Interviewee, Description: f.Description, Content: f.Content}
	case models.UnitExercise:
		return &models.Exercise{UnitBase: base, ExerciseTitle: f.Title, Goal: f.Goal, Instructions: f.Instructions}
	case models.UnitTemplate:
		return &models.Template{UnitBase: base, TemplateTitle: f.Title, Description: f.Description, Content: f.Content}
	case models.UnitUpcoming:
		u := &models.Upcoming{UnitBase: base, UpcomingTitle: f.Title, UnitType: models.UnitKind(f.UnitType), Description: f.Description}
		if t, err := time.Parse(dateLayout, f.ExpectedDate); err == nil {
			u.ExpectedDate = &t
		}
		return u
	case models.UnitPromptSet:
		ps := &models.PromptSet{
			UnitBase:           base,
			PromptSetTitle:     f.Title,
			Purpose:            f.Purpose,
			SuggestedFrequency: f.SuggestedFrequency,
			Badge:              badge,
		}
		copy(ps.Prompts[:], f.Prompts)
		return ps
	}
	return nil
}

// inlineBadge checks a badge sent in the body rather than via a draft.
func inlineBadge(b *models.Badge) (models.Badge, []string) {
	if b == nil {
		return models.Badge{}, []string{"A prompt set needs a badge or badge_token."}
	}
	return promptsets.CheckBadge(*b)
}
