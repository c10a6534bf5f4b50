package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	pc := PasswordContext{Username: "ivanpetrov", Email: "ivan.petrov@example.com", FirstName: "Ivan", LastName: "Petrov"}

	tests := []struct {
		name     string
		password string
		want     []error
	}{
		{"Valid", "correct-horse-battery", nil},
		{"Exactly Min Length", "Zx7#mQ2w", nil},
		{"Too Short", "Zx7#mQ", []error{ErrPasswordTooShort}},
		{"Too Long", strings.Repeat("q", 100) + strings.Repeat("w", 29), []error{ErrPasswordTooLong}},
		{"Entirely Numeric", "90412873", []error{ErrPasswordNumeric}},
		{"Common", "Password1", []error{ErrPasswordCommon}},
		{"Numeric And Common", "12345678", []error{ErrPasswordNumeric, ErrPasswordCommon}},
		{"Similar To Username", "ivanpetrov1", []error{ErrPasswordTooSimilar}},
		{"Similar To Email Local Part", "petrov.ivan", []error{ErrPasswordTooSimilar}},
		{"Unicode Characters", "Ångström-pass-12", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePassword(tt.password, pc)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePassword_NoPersonalInfo(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ValidatePassword("ivanpetrov1", PasswordContext{}))
}

func TestJoinPasswordErrors(t *testing.T) {
	t.Parallel()
	msg := JoinPasswordErrors([]error{ErrPasswordTooShort, ErrPasswordNumeric})
	assert.Equal(t, ErrPasswordTooShort.Error()+" "+ErrPasswordNumeric.Error(), msg)
	assert.Empty(t, JoinPasswordErrors(nil))
}

func TestSimilarityRatio(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, similarityRatio("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, similarityRatio("abc", "xyz"), 1e-9)
	// "abcd" vs "bcde": one block "bcd" of 3 -> 6/8
	assert.InDelta(t, 0.75, similarityRatio("abcd", "bcde"), 1e-9)
	assert.InDelta(t, 1.0, similarityRatio("", ""), 1e-9)
}

func TestIsCommonPassword(t *testing.T) {
	t.Parallel()
	assert.True(t, IsCommonPassword("qwerty123"))
	assert.True(t, IsCommonPassword("  PASSWORD "))
	assert.False(t, IsCommonPassword("violet-lantern-42"))
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"Valid", "test_user123", nil},
		{"Email Like", "user@example.com", nil},
		{"Cyrillic", "иван.петров", nil},
		{"Plus And Dash", "a+b-c", nil},
		{"Space", "ivan petrov", ErrUsernameInvalid},
		{"Slash", "ivan/petrov", ErrUsernameInvalid},
		{"Empty", "", ErrUsernameInvalid},
		{"Too Long", strings.Repeat("a", 256), ErrUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateUsername(tt.username))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@mail.example.ru"))
	assert.ErrorIs(t, ValidateEmail("user@"), ErrEmailInvalid)
	assert.ErrorIs(t, ValidateEmail("user.example.com"), ErrEmailInvalid)
	assert.ErrorIs(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"), ErrEmailTooLong)
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "+7 (912) 345-67-89", want: "+79123456789"},
		{in: "+79123456789", want: "+79123456789"},
		{in: "89123456789", want: "+79123456789"},
		{in: "8 912 345 67 89", want: "+79123456789"},
		{in: "79123456789", want: "+79123456789"},
		{in: "9123456789", want: "+79123456789"},
		{in: "+7 (495) 123-45-67", want: "+74951234567"},
		{in: "", wantErr: true},
		{in: "+8 912 345 67 89", wantErr: true},
		{in: "+1 202 555 0101", wantErr: true},
		{in: "912345678", wantErr: true},
		{in: "+7 (012) 345-67-89", wantErr: true},
		{in: "+7 912 345 67 8x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPhoneInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPhone(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "+7 (912) 345-67-89", FormatPhone("+79123456789"))
	assert.Equal(t, "12345", FormatPhone("12345"))
}
