// Package strings holds small helpers for user-supplied string lists.
package strings

import (
	"strings"
)

// DedupeAndTrim normalizes a list of free-text entries, such as the
// registration numbers a volunteer types into their medical section: each
// value is whitespace-trimmed, blanks are dropped, and repeats keep only
// their first occurrence. Comparison is exact; "GMC-100" and "gmc-100" are
// distinct entries.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	kept := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		kept = append(kept, v)
	}
	return kept
}
