package generator

import (
	"regexp"
	"strings"
)

var (
	labelPattern   = regexp.MustCompile(`(?i)^\s*(comment|reaction|response|reply)\s*:\s*`)
	urlPattern     = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
	hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionPattern = regexp.MustCompile(`@[\p{L}\p{N}_.]+`)
	bulletPattern  = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s+`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

const wrapping = "\"'“”‘’`[](){}<>"

// SanitizeComment forces a comment onto a single plain line: no labels,
// links, hashtags, mentions, markdown, bullets or surrounding quotes
func SanitizeComment(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
	s = labelPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "")
	s = urlPattern.ReplaceAllString(s, "")
	s = hashtagPattern.ReplaceAllString(s, "")
	s = mentionPattern.ReplaceAllString(s, "")
	s = strings.NewReplacer("**", "", "__", "", "`", "", "~~", "").Replace(s)
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, wrapping)
	return strings.TrimSpace(s)
}
