package entity

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultPhoneRegion = "DE"

// NormalizePhone returns the number as international digits without a plus
// sign ("0170 123 4567" -> "491701234567"). The "p:" prefix the ad platform
// puts in front of numbers is dropped.
func NormalizePhone(raw string) string {
	return NormalizePhoneRegion(raw, DefaultPhoneRegion)
}

func NormalizePhoneRegion(raw, region string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "p:"))
	if s == "" {
		return ""
	}

	digits := onlyDigits(s)
	if digits == "" {
		return ""
	}

	cc := phonenumbers.GetCountryCodeForRegion(strings.ToUpper(region))
	if cc == 0 {
		cc = 49
	}
	prefix := strconv.Itoa(cc)

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0"):
		digits = prefix + digits[1:]
	case strings.HasPrefix(digits, prefix):
	case len(digits) <= 11:
		digits = prefix + digits
	}

	num, err := phonenumbers.Parse("+"+digits, region)
	if err != nil {
		return digits
	}
	return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+")
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
