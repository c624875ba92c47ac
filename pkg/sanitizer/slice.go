package sanitizer

import "strings"

// NormalizeStringSlice applies normalizer to every item, dropping empty
// results and later duplicates. Order is preserved.
func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))
	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}

// SplitList splits a comma separated list, trimming and de-duplicating items.
func SplitList(value string) []string {
	return NormalizeStringSlice(strings.Split(value, ","), strings.TrimSpace)
}
