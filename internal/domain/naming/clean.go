// Package naming repairs OCR player names and resolves them against the roster.
package naming

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`^\[([^\]]+)\](.+)$`)

// Tag lengths accepted by the in-game name format.
const (
	minTagLen = 2
	maxTagLen = 4
)

// Cleaner fixes bracket misreads in names. Known alliance tags enable the
// repair of a closing bracket read as a letter.
type Cleaner struct {
	tags []string
}

// NewCleaner creates a Cleaner for the given alliance tags.
func NewCleaner(knownTags ...string) Cleaner {
	tags := make([]string, 0, len(knownTags))
	for _, t := range knownTags {
		if t = strings.Trim(strings.TrimSpace(t), "[]"); t != "" {
			tags = append(tags, t)
		}
	}
	return Cleaner{tags: tags}
}

// CleanName applies the generic repairs only.
func CleanName(raw string) string {
	return Cleaner{}.Clean(raw)
}

// Clean collapses whitespace and repairs the tag brackets:
// a leading "(", "{" or "<" becomes "["; a ")", "}", ">" or "|" closing a
// 2 to 4 character tag becomes "]"; for a known tag, a "J", "I", "l" or "1"
// right after it becomes "]", or a missing "]" is inserted.
func (c Cleaner) Clean(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return s
	}
	if strings.ContainsRune("({<", rune(s[0])) {
		s = "[" + s[1:]
	}
	if s[0] != '[' {
		return s
	}
	if closerAt(s, "]") >= 0 {
		return s
	}
	if i := closerAt(s, ")}>|"); i >= 0 {
		return s[:i] + "]" + s[i+1:]
	}
	for _, tag := range c.tags {
		end := 1 + len(tag)
		if len(s) <= end || !strings.EqualFold(s[1:end], tag) {
			continue
		}
		if strings.ContainsRune("JIl1", rune(s[end])) {
			return s[:end] + "]" + s[end+1:]
		}
		return s[:end] + "]" + s[end:]
	}
	return s
}

// closerAt returns the index of the first byte from set that could close a tag, or -1.
func closerAt(s, set string) int {
	for i := 1 + minTagLen; i <= 1+maxTagLen && i < len(s); i++ {
		if strings.IndexByte(set, s[i]) >= 0 {
			return i
		}
	}
	return -1
}

// ParseTag splits "[tag]name" into its parts. ok is false when the string
// has no leading bracketed tag, in which case name is the whole trimmed string.
func ParseTag(s string) (tag, name string, ok bool) {
	s = strings.TrimSpace(s)
	m := tagPattern.FindStringSubmatch(s)
	if m == nil {
		return "", s, false
	}
	tag, name = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if tag == "" || name == "" {
		return "", s, false
	}
	return tag, name, true
}

// WithTag renders a name in the in-game "[tag]name" form.
func WithTag(tag, name string) string {
	if tag == "" {
		return name
	}
	return "[" + tag + "]" + name
}
