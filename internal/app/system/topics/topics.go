// Package topics holds the closed set of library topics.
package topics

import "strings"

// All is the closed topic enum used by main_topic, secondary_topics,
// tag topic associations and topic suggestions.
var All = []string{
	"communication",
	"conflict_resolution",
	"decision_making",
	"delegation",
	"diversity_and_inclusion",
	"emotional_intelligence",
	"feedback",
	"goal_setting",
	"innovation",
	"leadership",
	"mentoring",
	"motivation",
	"productivity",
	"resilience",
	"strategy",
	"team_building",
	"time_management",
	"wellbeing",
}

var set = func() map[string]struct{} {
	m := make(map[string]struct{}, len(All))
	for _, t := range All {
		m[t] = struct{}{}
	}
	return m
}()

// Normalize lowercases, trims and converts spaces to underscores.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

// Valid reports whether s (after normalization) is a known topic.
func Valid(s string) bool {
	_, ok := set[Normalize(s)]
	return ok
}

// Label renders a topic for display ("time_management" → "Time Management").
func Label(s string) string {
	parts := strings.Split(Normalize(s), "_")
	for i, p := range parts {
		if p == "and" {
			continue
		}
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// FilterValid normalizes the inputs, drops unknown topics and duplicates,
// and reports the rejected values.
func FilterValid(in []string) (ok []string, rejected []string) {
	seen := map[string]struct{}{}
	for _, raw := range in {
		t := Normalize(raw)
		if t == "" {
			continue
		}
		if !Valid(t) {
			rejected = append(rejected, raw)
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		ok = append(ok, t)
	}
	return ok, rejected
}
