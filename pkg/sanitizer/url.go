package sanitizer

import "strings"

// NormalizeBaseURL lower-cases the scheme and host and drops trailing slashes
// so paths can be appended with a single "/". A missing scheme becomes https.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	scheme := "https"
	if i := strings.Index(raw, "://"); i >= 0 {
		scheme = strings.ToLower(raw[:i])
		raw = raw[i+len("://"):]
	}
	host, path, _ := strings.Cut(raw, "/")

	result := scheme + "://" + strings.ToLower(host)
	if path != "" {
		result += "/" + path
	}
	return strings.TrimRight(result, "/")
}
