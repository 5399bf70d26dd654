// Package richtext cleans user supplied note HTML before it is stored.
package richtext

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer keeps editor formatting (paragraphs, lists, links, emphasis)
// and drops scripts, event handlers and other active content.
type Sanitizer struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	ugc := bluemonday.UGCPolicy()
	ugc.RequireNoFollowOnLinks(true)
	ugc.AddTargetBlankToFullyQualifiedLinks(true)

	return &Sanitizer{
		ugc:    ugc,
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize returns the safe subset of s.
func (s *Sanitizer) Sanitize(content string) string {
	return s.ugc.Sanitize(content)
}

// PlainText strips every tag and unescapes entities, leaving only the text a
// reader would see.
func (s *Sanitizer) PlainText(content string) string {
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(content)))
}
