package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPhoneInvalid is returned for numbers that are not valid Russian numbers.
var ErrPhoneInvalid = errors.New("The phone number must be in the format +7 (XXX) XXX-XX-XX.")

// NormalizePhone parses a Russian phone number written in any of the usual
// forms (+7..., 8..., 7..., or the bare 10-digit national number, with or
// without spaces, dashes and brackets) and returns it in E.164 form.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrPhoneInvalid
	}

	var digits strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", ErrPhoneInvalid
		}
	}

	d := digits.String()
	plus := strings.HasPrefix(raw, "+")
	switch {
	case len(d) == 11 && d[0] == '7':
	case len(d) == 11 && d[0] == '8' && !plus:
		d = "7" + d[1:]
	case len(d) == 10 && !plus:
		d = "7" + d
	default:
		return "", ErrPhoneInvalid
	}

	// National numbers never start with 0 or 1.
	if d[1] == '0' || d[1] == '1' {
		return "", ErrPhoneInvalid
	}
	return "+" + d, nil
}

// FormatPhone renders an E.164 Russian number as +7 (XXX) XXX-XX-XX.
// Values that are not normalized numbers are returned unchanged.
func FormatPhone(e164 string) string {
	if len(e164) != 12 || !strings.HasPrefix(e164, "+7") {
		return e164
	}
	n := e164[2:]
	return fmt.Sprintf("+7 (%s) %s-%s-%s", n[0:3], n[3:6], n[6:8], n[8:10])
}
