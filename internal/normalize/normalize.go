// Package normalize holds the per-type coercion rules. Every function is pure
// and reports failure through its boolean result; callers own the anomaly log.
package normalize

import "regexp"

// Strip removes every match of each pattern, in order.
func Strip(value string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		value = re.ReplaceAllString(value, "")
	}
	return value
}
