package utils

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	passwordMaxLength = 128
	passwordMinLength = 8
	whitespaceRe      = regexp.MustCompile(`\s`)
)

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 254 {
		return errors.New("invalid email")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errors.New("invalid email")
	}
	return nil
}

func ValidatePassword(s string) error {
	n := utf8.RuneCountInString(s)
	if n < passwordMinLength {
		return errors.New("password too short (min 8 chars)")
	}
	if n > passwordMaxLength {
		return errors.New("password too long (max 128 chars)")
	}
	if whitespaceRe.MatchString(s) {
		return errors.New("password must not contain spaces")
	}
	return nil
}
