// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	// maxSimilarity is the ratio at which a password counts as too close to
	// a personal attribute.
	maxSimilarity = 0.7
)

// Password rule failures. Callers may show several at once.
var (
	ErrPasswordTooShort    = errors.New("This password is too short. It must contain at least 8 characters.")
	ErrPasswordTooLong     = errors.New("This password is too long. It must not exceed 128 characters.")
	ErrPasswordNumeric     = errors.New("This password is entirely numeric.")
	ErrPasswordCommon      = errors.New("This password is too common.")
	ErrPasswordTooSimilar  = errors.New("The password is too similar to your personal information.")
	ErrPasswordMismatch    = errors.New("The two password fields didn't match.")
	ErrUsernameInvalid     = errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	ErrUsernameTooLong     = errors.New("The username must not be longer than 255 characters.")
	ErrEmailInvalid        = errors.New("The email must be in the format user@example.com.")
	ErrEmailTooLong        = errors.New("The email must not be longer than 255 characters.")
	usernameRegex          = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	emailRegex             = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
)

// PasswordContext carries the personal attributes a password must not
// resemble.
type PasswordContext struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// ValidatePassword applies every password rule and returns all failures.
func ValidatePassword(password string, pc PasswordContext) []error {
	var errs []error

	length := len([]rune(password))
	if length < minPasswordLength {
		errs = append(errs, ErrPasswordTooShort)
	}
	if length > maxPasswordLength {
		errs = append(errs, ErrPasswordTooLong)
	}
	if password != "" && isAllDigits(password) {
		errs = append(errs, ErrPasswordNumeric)
	}
	if IsCommonPassword(password) {
		errs = append(errs, ErrPasswordCommon)
	}
	if tooSimilar(password, pc) {
		errs = append(errs, ErrPasswordTooSimilar)
	}
	return errs
}

// JoinPasswordErrors renders rule failures as one message.
func JoinPasswordErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, " ")
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func tooSimilar(password string, pc PasswordContext) bool {
	if password == "" {
		return false
	}
	pw := strings.ToLower(password)

	attrs := []string{pc.Username, pc.FirstName, pc.LastName, pc.Email}
	if local, domain, ok := strings.Cut(pc.Email, "@"); ok {
		attrs = append(attrs, local, domain)
	}
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if len(attr) < 3 {
			continue
		}
		if similarityRatio(pw, attr) >= maxSimilarity {
			return true
		}
		// Parts of compound values such as "ivan.petrov".
		for _, part := range strings.FieldsFunc(attr, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
			if len(part) >= 3 && similarityRatio(pw, part) >= maxSimilarity {
				return true
			}
		}
	}
	return false
}

// similarityRatio is 2*M/T where M is the number of characters in matching
// blocks found by repeatedly taking the longest common substring.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestCommon(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingChars(a[:ai], b[:bi]) + matchingChars(a[ai+size:], b[bi+size:])
}

func longestCommon(a, b []rune) (int, int, int) {
	bestI, bestJ, best := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
					bestI, bestJ = i-best, j-best
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, best
}

// ValidateUsername checks the allowed characters and length.
func ValidateUsername(username string) error {
	if len([]rune(username)) > 255 {
		return ErrUsernameTooLong
	}
	if !usernameRegex.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 255 {
		return ErrEmailTooLong
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}
