package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeLocation(location string) string {
	return TrimAndNormalize(location)
}

func NormalizeAmenity(amenity string) string {
	return strings.ToLower(TrimAndNormalize(amenity))
}

// NormalizeCardholder upper-cases the name as printed on a card.
func NormalizeCardholder(name string) string {
	return strings.ToUpper(TrimAndNormalize(name))
}
