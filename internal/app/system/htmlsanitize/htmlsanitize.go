// Package htmlsanitize cleans user-contributed rich text before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcOnce sync.Once
	ugc     *bluemonday.Policy

	strictOnce sync.Once
	strict     *bluemonday.Policy
)

func ugcPolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		ugc = bluemonday.UGCPolicy()
		ugc.RequireNoFollowOnLinks(true)
		ugc.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return ugc
}

func strictPolicy() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Rich sanitizes body text (articles, prompt text, instructions) allowing
// common formatting markup.
func Rich(s string) string {
	return strings.TrimSpace(ugcPolicy().Sanitize(s))
}

// Plain strips every tag; used for titles, names, and notes.
func Plain(s string) string {
	return strings.TrimSpace(strictPolicy().Sanitize(s))
}
