package validation

import "strings"

// commonPasswords is a short list of the passwords seen most often in
// public breach corpora.
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 123456789 12345678 password qwerty123 qwerty1 111111 12345
		1234567 1234567890 123123 000000 iloveyou abc123 qwerty password1
		1q2w3e4r 1q2w3e4r5t qwertyuiop 654321 555555 lovely 7777777 888888
		princess dragon 123qwe 666666 1qaz2wsx 121212 sunshine monkey
		football baseball welcome admin admin123 letmein trustno1 master
		shadow superman michael qazwsx 987654321 passw0rd password123
		zxcvbnm asdfghjkl 11111111 12341234 00000000 qwertyui 123321
		1qaz2wsx3edc football1 starwars whatever charlie donald
		jordan23 hello123 freedom computer internet secret123 iloveyou1
		q1w2e3r4 q1w2e3r4t5 aa123456 abcd1234 a1b2c3d4 changeme
	`) {
		commonPasswords[p] = struct{}{}
	}
}

// IsCommonPassword reports whether the password is on the common list.
// Matching ignores case and surrounding whitespace.
func IsCommonPassword(password string) bool {
	_, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]
	return ok
}
