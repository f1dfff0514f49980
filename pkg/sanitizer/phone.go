package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are tried against these regions in order.
var supportedRegions = []string{
	"FR",
	"US",
	"GB",
}

// NormalizePhone returns the E.164 form of phone, or "" when it is not a
// valid number in any supported region.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}

func IsValidPhone(phone string) bool {
	return NormalizePhone(phone) != ""
}
