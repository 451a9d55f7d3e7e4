package cmd

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the register form accepts.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`,
)

var (
	errInvalidEmail    = errors.New("invalid email address")
	errInvalidPassword = errors.New("password must be at least 8 characters")
	errBlankPassword   = errors.New("password must not be empty")
	errBlankName       = errors.New("name must not be empty")
)

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" || !emailPattern.MatchString(email) {
		return errInvalidEmail
	}
	return nil
}

func validateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return errBlankName
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errInvalidPassword
	}
	return nil
}

func validateLogin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if strings.TrimSpace(password) == "" {
		return errBlankPassword
	}
	return nil
}
