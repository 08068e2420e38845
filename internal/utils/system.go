package utils

import (
	"sort"
	"strings"
)

// MergeEnv returns base with every variable in extra set, replacing any
// existing value. base is in os.Environ form.
func MergeEnv(base []string, extra map[string]string) []string {
	merged := make([]string, 0, len(base)+len(extra))
	for _, entry := range base {
		name, _, _ := strings.Cut(entry, "=")
		if _, replaced := extra[name]; replaced {
			continue
		}
		merged = append(merged, entry)
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		merged = append(merged, name+"="+extra[name])
	}
	return merged
}
