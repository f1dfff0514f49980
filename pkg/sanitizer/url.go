package sanitizer

import "strings"

// NormalizeImageURL trims surrounding whitespace only. Scheme, host case and
// relative upload paths are kept as the backend stored them.
func NormalizeImageURL(url string) string {
	return strings.TrimSpace(url)
}
