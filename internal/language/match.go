// Package language resolves a requested caption language against the tracks a video offers.
package language

import (
	"slices"
	"strings"
)

// Match returns the available tag that best satisfies desired.
// An exact match wins; otherwise the lexicographically smallest tag of the form
// desired + "-" + suffix is returned (e.g. "en" matches "en-GB").
func Match(available []string, desired string) (string, bool) {
	if desired == "" {
		return "", false
	}

	tags := slices.Clone(available)
	slices.Sort(tags)

	if _, found := slices.BinarySearch(tags, desired); found {
		return desired, true
	}

	prefix := desired + "-"
	for _, tag := range tags {
		if strings.HasPrefix(tag, prefix) {
			return tag, true
		}
	}
	return "", false
}

// Union merges authored and automatic caption tags into one sorted list without duplicates
func Union(authored, automatic []string) []string {
	tags := make([]string, 0, len(authored)+len(automatic))
	tags = append(tags, authored...)
	tags = append(tags, automatic...)
	tags = slices.DeleteFunc(tags, func(t string) bool { return t == "" })
	slices.Sort(tags)
	return slices.Compact(tags)
}
