package model

import (
	"strings"

	"telegram-fish-shop/internal/domain"
)

// CustomerFields is the payload sent on customer create and update.
type CustomerFields struct {
	Name  string
	Email string
	Phone string
}

func (f CustomerFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" || strings.TrimSpace(f.Phone) == "" {
		return domain.ErrMissingRegistration
	}
	return nil
}

// Sender is the chat platform's view of the person talking to the bot.
type Sender struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// FullName joins first and last name, skipping an empty last name.
func (s Sender) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}
