package application

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PasswordPolicy is applied on signup and on password change.
// ForbidWord, when non-empty, rejects passwords containing it case-insensitively.
type PasswordPolicy struct {
	MinLength  int
	ForbidWord string
}

// MinPasswordLength is enforced even when a policy asks for less.
const MinPasswordLength = 8

var DefaultPasswordPolicy = PasswordPolicy{MinLength: MinPasswordLength}

func (p PasswordPolicy) Check(plain string) error {
	minLen := max(p.MinLength, MinPasswordLength)
	if utf8.RuneCountInString(plain) < minLen {
		return invalidPassword(fmt.Sprintf("password must be at least %d characters long", minLen))
	}
	if p.ForbidWord != "" && strings.Contains(strings.ToLower(plain), strings.ToLower(p.ForbidWord)) {
		return invalidPassword(fmt.Sprintf("password must not contain %q", p.ForbidWord))
	}
	return nil
}
