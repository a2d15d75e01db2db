package topics_test

import (
	"testing"

	"github.com/twennie/twennie/internal/app/system/topics"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Time Management":    "time_management",
		"  team   building ": "team_building",
		"feedback":           "feedback",
		"":                   "",
	}
	for in, want := range tests {
		if got := topics.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValid(t *testing.T) {
	for _, tp := range topics.All {
		if !topics.Valid(tp) {
			t.Errorf("expected %q to be valid", tp)
		}
	}
	if !topics.Valid("Goal Setting") {
		t.Error("expected display form to normalize to a valid topic")
	}
	if topics.Valid("astrology") {
		t.Error("expected unknown topic to be invalid")
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"time_management":         "Time Management",
		"diversity_and_inclusion": "Diversity and Inclusion",
		"feedback":                "Feedback",
	}
	for in, want := range tests {
		if got := topics.Label(in); got != want {
			t.Errorf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterValid(t *testing.T) {
	ok, rejected := topics.FilterValid([]string{"Feedback", "feedback", "astrology", " ", "Team Building"})
	if len(ok) != 2 || ok[0] != "feedback" || ok[1] != "team_building" {
		t.Errorf("ok = %q", ok)
	}
	if len(rejected) != 1 || rejected[0] != "astrology" {
		t.Errorf("rejected = %q", rejected)
	}
}
