package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// space covers Unicode whitespace and the ASCII separator controls; \s alone is ASCII only.
const space = `\s\v\x{1c}-\x{1f}\x{85}\p{Z}`

var (
	separatorRun = regexp.MustCompile(`[` + space + `\-_/]+`)
	punctuation  = regexp.MustCompile(`[^\p{L}\p{N}\p{M}` + space + `]`)
	spaceRun     = regexp.MustCompile(`[` + space + `]+`)
)

// Normalize canonicalizes a free-text term for comparison: lowercase,
// separators collapsed to one space, punctuation removed, trimmed.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = separatorRun.ReplaceAllString(text, " ")
	text = punctuation.ReplaceAllString(text, "")
	text = spaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// runeLen counts characters; length gates compare against it, not bytes.
func runeLen(s string) int { return utf8.RuneCountInString(s) }

// words splits a normalized string into its word set.
func words(normalized string) map[string]struct{} {
	fields := strings.Fields(normalized)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// normalizeAll normalizes terms and drops the ones that end up blank.
func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := Normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
