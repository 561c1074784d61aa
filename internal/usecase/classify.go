package usecase

import (
	"strings"

	"github.com/xavierca1/leadflow/internal/entity"
)

const minPhoneDigits = 7

// Classify assigns the raw contact cells of a queue row to name, email and
// phone. The ad platform does not keep a stable column order, so the role of
// each cell is guessed from its content: the first phone-looking value is
// the phone, the first value with an @ is the email, the first other
// non-empty value is the name.
func Classify(raw []string, region string) entity.ContactFields {
	var out entity.ContactFields
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch {
		case looksLikePhone(v):
			if out.Phone == "" {
				out.Phone = entity.NormalizePhoneRegion(v, region)
			}
		case strings.Contains(v, "@"):
			if out.Email == "" {
				out.Email = v
			}
		default:
			if out.Name == "" {
				out.Name = v
			}
		}
	}
	if out.Name == "" {
		out.Name = entity.UnknownName
	}
	return out
}

func looksLikePhone(v string) bool {
	s := v
	if len(s) >= 2 && strings.EqualFold(s[:2], "p:") {
		s = strings.TrimSpace(s[2:])
	}
	if s == "" {
		return false
	}
	if c := s[0]; c != '+' && (c < '0' || c > '9') {
		return false
	}

	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '/' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}
