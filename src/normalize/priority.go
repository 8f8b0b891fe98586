// Package normalize maps natural-language task attributes onto the
// canonical values the task store accepts. Every function is total: bad
// input produces a flagged default, never an error.
package normalize

import "strings"

// Priority is one of the four canonical levels the task store accepts.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
	PriorityUrgent Priority = "Urgent"
)

// DefaultPriority is used for unrecognized input.
const DefaultPriority = PriorityMedium

// prioritySynonyms maps lowercase phrases to canonical levels.
var prioritySynonyms = map[string]Priority{
	"urgent":    PriorityUrgent,
	"critical":  PriorityUrgent,
	"asap":      PriorityUrgent,
	"emergency": PriorityUrgent,

	"high":      PriorityHigh,
	"important": PriorityHigh,

	"medium":   PriorityMedium,
	"normal":   PriorityMedium,
	"moderate": PriorityMedium,
	"default":  PriorityMedium,

	"low":      PriorityLow,
	"minor":    PriorityLow,
	"whenever": PriorityLow,
	"someday":  PriorityLow,
}

// NormalizePriority maps a free-text priority expression to a canonical
// level. The second return value is false when the input was not recognized
// and the default was applied; callers may use that to confirm with the
// user instead of silently accepting it.
func NormalizePriority(input string) (Priority, bool) {
	key := strings.ToLower(strings.TrimSpace(input))
	if p, ok := prioritySynonyms[key]; ok {
		return p, true
	}
	return DefaultPriority, false
}

// IsCanonicalPriority reports whether s is exactly one of the four levels.
func IsCanonicalPriority(s string) bool {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
