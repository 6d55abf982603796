package content

import (
	"regexp"
	"strings"
)

// FallbackSlug is used when a title has no URL-safe characters
const FallbackSlug = "event"

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	nonWordChars  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a lowercase, hyphen-delimited, URL-safe token from a title.
// The result is never empty.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonWordChars.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return FallbackSlug
	}
	return s
}
