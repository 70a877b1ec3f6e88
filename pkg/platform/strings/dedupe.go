// Package strings provides string-slice utilities for config parsing.
package strings

import (
	"strings"
)

// SplitCSV splits a comma-separated value into its deduplicated, trimmed
// elements. Empty elements are dropped; order is preserved. A blank input
// yields nil so "unset" and "empty" behave the same.
//
// Example:
//
//	SplitCSV(" kafka-1:9092, kafka-2:9092,kafka-1:9092, ")
//	// Returns: []string{"kafka-1:9092", "kafka-2:9092"}
func SplitCSV(csv string) []string {
	out := DedupeAndTrim(strings.Split(csv, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
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
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
