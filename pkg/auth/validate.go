package auth

import (
	"regexp"

	"github.com/asaskevich/govalidator"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail checks the local@domain.tld shape: printable ASCII only, no
// whitespace, a single @ and at least one dot after it.
func ValidEmail(email string) bool {
	return govalidator.IsPrintableASCII(email) && emailPattern.MatchString(email)
}
