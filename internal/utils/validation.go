package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

var egyptianMobile = regexp.MustCompile(`^(010|011|012|015)\d{8}$`)

// IsEgyptianMobile reports whether phone is a local Egyptian mobile number.
func IsEgyptianMobile(phone string) bool {
	return egyptianMobile.MatchString(phone)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmail reports whether value parses as a bare email address.
func IsEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}
