package environment

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	notSlugChar   = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Slugify turns a display name into a filesystem-safe slug: lowercase,
// whitespace collapsed to a hyphen, anything outside [a-z0-9-] dropped,
// repeated hyphens collapsed, leading/trailing hyphens trimmed. An
// empty result falls back to "script" (spec §3's slug law).
func Slugify(name string) string {
	s := strings.ToLower(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = notSlugChar.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "script"
	}
	return s
}
