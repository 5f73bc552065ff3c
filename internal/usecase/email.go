package usecase

import (
	"net/mail"
	"strings"

	"telegram-fish-shop/internal/domain"
)

// ValidateEmail checks address grammar only; it never contacts a mail server.
// A bare addr-spec with a dotted domain is required, so display names and
// angle-bracket forms are rejected.
func ValidateEmail(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	invalid := &domain.ValidationError{Field: "email", Value: raw}
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return "", invalid
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", invalid
	}
	at := strings.LastIndexByte(s, '@')
	host := s[at+1:]
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return "", invalid
	}
	return s, nil
}
