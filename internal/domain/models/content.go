// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnitKind names a content-unit variant. Each variant lives in its own
// collection and carries its own title field.
type UnitKind string

const (
	UnitArticle   UnitKind = "article"
	UnitVideo     UnitKind = "video"
	UnitInterview UnitKind = "interview"
	UnitExercise  UnitKind = "exercise"
	UnitTemplate  UnitKind = "template"
	UnitPromptSet UnitKind = "promptset"
	UnitUpcoming  UnitKind = "upcoming"
)

// UnitKinds lists every variant, upcoming placeholders included.
var UnitKinds = []UnitKind{
	UnitArticle, UnitVideo, UnitInterview, UnitExercise, UnitTemplate, UnitPromptSet, UnitUpcoming,
}

// LibraryKinds lists the variants that can appear in the topic library.
var LibraryKinds = []UnitKind{
	UnitArticle, UnitVideo, UnitInterview, UnitExercise, UnitTemplate, UnitPromptSet,
}

var unitCollections = map[UnitKind]string{
	UnitArticle:   "articles",
	UnitVideo:     "videos",
	UnitInterview: "interviews",
	UnitExercise:  "exercises",
	UnitTemplate:  "templates",
	UnitPromptSet: "promptsets",
	UnitUpcoming:  "upcoming",
}

// Valid reports whether k is a known variant.
func (k UnitKind) Valid() bool {
	_, ok := unitCollections[k]
	return ok
}

// Collection returns the Mongo collection for the variant.
func (k UnitKind) Collection() string {
	return unitCollections[k]
}

// TitleField returns the variant's title field name, e.g. "article_title".
func (k UnitKind) TitleField() string {
	if !k.Valid() {
		return ""
	}
	return string(k) + "_title"
}

// Visibility scopes who may read a unit's full body.
type Visibility string

const (
	VisibilityTeam         Visibility = "team_only"
	VisibilityOrganization Visibility = "organization_only"
	VisibilityAllMembers   Visibility = "all_members"
)

// Valid reports whether v is a known scope.
func (v Visibility) Valid() bool {
	switch v {
	case VisibilityTeam, VisibilityOrganization, VisibilityAllMembers:
		return true
	}
	return false
}

// Unit lifecycle: in progress → submitted for approval → approved.
const (
	UnitStatusInProgress = "in progress"
	UnitStatusSubmitted  = "submitted for approval"
	UnitStatusApproved   = "approved"
)

// Author references the identity that owns a unit. Kind is empty on
// documents written before kinds were recorded; readers then fall back to
// probing the identity collections.
type Author struct {
	ID   primitive.ObjectID `bson:"id" json:"id"`
	Kind IdentityKind       `bson:"kind,omitempty" json:"kind,omitempty"`
}

// UnitBase holds the fields every variant shares.
type UnitBase struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MainTopic       string             `bson:"main_topic" json:"main_topic"`
	SecondaryTopics []string           `bson:"secondary_topics" json:"secondary_topics"`
	Visibility      Visibility         `bson:"visibility" json:"visibility"`
	Author          Author             `bson:"author" json:"author"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// Base returns the shared part of a unit.
func (b *UnitBase) Base() *UnitBase { return b }

// Unit is implemented by every content variant.
type Unit interface {
	Base() *UnitBase
	Kind() UnitKind
	Title() string
}

type Article struct {
	UnitBase     `bson:",inline"`
	ArticleTitle string `bson:"article_title" json:"article_title"`
	Summary      string `bson:"summary,omitempty" json:"summary,omitempty"`
	Content      string `bson:"content" json:"content"`
}

func (a *Article) Kind() UnitKind { return UnitArticle }
func (a *Article) Title() string  { return a.ArticleTitle }

type Video struct {
	UnitBase    `bson:",inline"`
	VideoTitle  string `bson:"video_title" json:"video_title"`
	VideoURL    string `bson:"video_url" json:"video_url"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

func (v *Video) Kind() UnitKind { return UnitVideo }
func (v *Video) Title() string  { return v.VideoTitle }

type Interview struct {
	UnitBase       `bson:",inline"`
	InterviewTitle string `bson:"interview_title" json:"interview_title"`
	Interviewee    string `bson:"interviewee" json:"interviewee"`
	Description    string `bson:"description,omitempty" json:"description,omitempty"`
	Content        string `bson:"content" json:"content"`
}

func (i *Interview) Kind() UnitKind { return UnitInterview }
func (i *Interview) Title() string  { return i.InterviewTitle }

type Exercise struct {
	UnitBase      `bson:",inline"`
	ExerciseTitle string `bson:"exercise_title" json:"exercise_title"`
	Goal          string `bson:"goal,omitempty" json:"goal,omitempty"`
	Instructions  string `bson:"instructions" json:"instructions"`
}

func (e *Exercise) Kind() UnitKind { return UnitExercise }
func (e *Exercise) Title() string  { return e.ExerciseTitle }

type Template struct {
	UnitBase      `bson:",inline"`
	TemplateTitle string `bson:"template_title" json:"template_title"`
	Description   string `bson:"description,omitempty" json:"description,omitempty"`
	Content       string `bson:"content" json:"content"`
}

func (t *Template) Kind() UnitKind { return UnitTemplate }
func (t *Template) Title() string  { return t.TemplateTitle }

// Upcoming is a pre-publication placeholder announcing a unit the author
// plans to write. It is listed among the author's own units only.
type Upcoming struct {
	UnitBase      `bson:",inline"`
	UpcomingTitle string     `bson:"upcoming_title" json:"upcoming_title"`
	UnitType      UnitKind   `bson:"unit_type" json:"unit_type"`
	Description   string     `bson:"description,omitempty" json:"description,omitempty"`
	ExpectedDate  *time.Time `bson:"expected_date,omitempty" json:"expected_date,omitempty"`
}

func (u *Upcoming) Kind() UnitKind { return UnitUpcoming }
func (u *Upcoming) Title() string  { return u.UpcomingTitle }

// NewUnit returns an empty value of the given variant, or nil.
func NewUnit(k UnitKind) Unit {
	switch k {
	case UnitArticle:
		return &Article{}
	case UnitVideo:
		return &Video{}
	case UnitInterview:
		return &Interview{}
	case UnitExercise:
		return &Exercise{}
	case UnitTemplate:
		return &Template{}
	case UnitPromptSet:
		return &PromptSet{}
	case UnitUpcoming:
		return &Upcoming{}
	}
	return nil
}

// UnitSummary is the kind-independent projection used by listings and
// dashboards. Title is projected from the variant's own title field.
type UnitSummary struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	Kind            UnitKind           `bson:"kind" json:"kind"`
	Title           string             `bson:"title" json:"title"`
	MainTopic       string             `bson:"main_topic" json:"main_topic"`
	SecondaryTopics []string           `bson:"secondary_topics" json:"secondary_topics"`
	Visibility      Visibility         `bson:"visibility" json:"visibility"`
	Author          Author             `bson:"author" json:"author"`
	Status          string             `bson:"status" json:"status"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}
