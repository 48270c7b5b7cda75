// Package markdown normalizes raw agent output into safe Markdown.
package markdown

import (
	"html"
	"regexp"
	"strings"
)

// The agent occasionally emits a small set of HTML constructs; everything in
// this list maps to a Markdown or plain-text equivalent, anything else is
// stripped outright.
var (
	brRe       = regexp.MustCompile(`(?i)<\s*br\s*/?>`)
	pOpenRe    = regexp.MustCompile(`(?i)<\s*p\s*>`)
	pCloseRe   = regexp.MustCompile(`(?i)<\s*/\s*p\s*>`)
	boldRe     = regexp.MustCompile(`(?i)<\s*/?\s*(strong|b)\s*>`)
	italicRe   = regexp.MustCompile(`(?i)<\s*/?\s*(em|i)\s*>`)
	underRe    = regexp.MustCompile(`(?i)<\s*/?\s*u\s*>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// Sanitize converts the supported HTML constructs to Markdown, strips every
// other tag, decodes entities, and collapses runs of blank lines. It is
// idempotent over its own output.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := strings.ReplaceAll(raw, "\r\n", "\n")
	cleaned = brRe.ReplaceAllString(cleaned, "\n")
	cleaned = pCloseRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = pOpenRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = boldRe.ReplaceAllString(cleaned, "**")
	cleaned = italicRe.ReplaceAllString(cleaned, "*")
	cleaned = underRe.ReplaceAllString(cleaned, "__")
	cleaned = tagRe.ReplaceAllString(cleaned, "")
	cleaned = html.UnescapeString(cleaned)
	cleaned = newlinesRe.ReplaceAllString(cleaned, "\n\n")

	return cleaned
}
