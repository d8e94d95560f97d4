// Package strings normalizes list-valued settings.
package strings

import (
	"strings"
)

// SplitList flattens comma separated entries, trims whitespace and drops
// empties and duplicates. Order of first appearance is preserved.
//
//	SplitList([]string{" kafka-1:9092, kafka-2:9092", "kafka-1:9092", ""})
//	// Returns: []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; !ok {
				seen[trimmed] = struct{}{}
				result = append(result, trimmed)
			}
		}
	}
	return result
}
