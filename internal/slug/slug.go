// Package slug turns note titles and names into URL path segments.
package slug

import (
	"regexp"
	"strings"
)

var (
	spaceRe   = regexp.MustCompile(`[\s\p{Zs}]+`)
	invalidRe = regexp.MustCompile(`[^\w\-\x{4e00}-\x{9fa5}]+`)
	hyphensRe = regexp.MustCompile(`-{2,}`)
)

// Make lowercases text, joins whitespace runs with a hyphen and drops every
// character other than ASCII word characters, hyphens and CJK ideographs
// (U+4E00..U+9FA5). The result never starts or ends with a hyphen and may be
// empty.
func Make(text string) string {
	s := strings.ToLower(text)
	s = spaceRe.ReplaceAllString(s, "-")
	s = invalidRe.ReplaceAllString(s, "")
	s = hyphensRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
