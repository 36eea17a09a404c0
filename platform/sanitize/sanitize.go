// Package sanitize normalizes user-provided free text before it is stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`[ \t]+`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// Text strips HTML tags, unescapes entities, drops control characters and
// collapses runs of spaces. Line breaks are kept, at most one blank line in a row.
func Text(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	// Entities may have encoded tags.
	result = htmlTagRegex.ReplaceAllString(result, "")

	result = strings.ReplaceAll(result, "\r\n", "\n")
	result = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, result)

	result = whitespaceRegex.ReplaceAllString(result, " ")
	result = blankLinesRegex.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// TextPtr sanitizes an optional value. Empty results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}
