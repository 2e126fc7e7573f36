// Package strings holds small helpers for list-valued configuration.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value and returns the trimmed,
// de-duplicated, non-empty entries in their original order.
//
//	SplitList(" broker-1:9092, broker-2:9092,,broker-1:9092")
//	// []string{"broker-1:9092", "broker-2:9092"}
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return DedupeAndTrim(strings.Split(raw, ","))
}

// DedupeAndTrim trims every value and drops blanks and repeats. Order is
// preserved.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
