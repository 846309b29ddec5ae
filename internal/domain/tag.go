package domain

import (
	"strings"
	"unicode"
)

// Tag is a unique label shared across items.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NormalizeTagNames strips control characters, trims names, drops blanks and
// removes duplicates while keeping first-seen order. The result is never nil.
// Stored tag lists are joined with a control character, so none may survive.
func NormalizeTagNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.Map(dropControl, name))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) {
		return -1
	}
	return r
}
