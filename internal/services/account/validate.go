package account

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPassword = errors.New("invalid password")
)

// Usernames are lowercase, start with a letter, 4 to 32 characters.
var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9]{3,31}$`)

// Passwords are 6 to 16 characters from a fixed printable set.
var passwordPattern = regexp.MustCompile("^[a-zA-Z0-9\\\\()\\[\\]/{}~`'\"<>.,_|!@#$%^&*+=-]{6,16}$")

// ValidateUsername lowercases and checks a username, returning the
// canonical form.
func ValidateUsername(username string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return "", ErrInvalidUsername
	}
	return username, nil
}

// ValidateEmail checks an address is a single plain mailbox, no
// display name and no angle brackets.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}
	if addr.Name != "" || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks length and character set.
func ValidatePassword(password string) error {
	if !passwordPattern.MatchString(password) {
		return ErrInvalidPassword
	}
	return nil
}
