// Package validation contains input validation rules for API payloads.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

var reservedUsernames = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"auth":     {},
	"explore":  {},
	"login":    {},
	"logout":   {},
	"metrics":  {},
	"profile":  {},
	"register": {},
	"settings": {},
	"snippets": {},
	"swagger":  {},
	"users":    {},
	"ws":       {},
}

// ValidateUsername validates username format and reserved names.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-20 characters and contain only letters, numbers, and underscores")
	}
	if _, exists := reservedUsernames[strings.ToLower(username)]; exists {
		return fmt.Errorf("username is reserved")
	}
	return nil
}

// ValidateEmail validates email format and length.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	if strings.HasSuffix(email, ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword enforces the password policy: at least 6 characters with
// an uppercase letter, a lowercase letter, and a digit.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("password must contain an uppercase letter, a lowercase letter, and a number")
	}
	return nil
}

// ValidateName validates the display name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > 50 {
		return fmt.Errorf("name must not exceed 50 characters")
	}
	return nil
}

// ValidateProfile validates optional profile fields.
func ValidateProfile(bio, location, website string) error {
	if len(bio) > 160 {
		return fmt.Errorf("bio must not exceed 160 characters")
	}
	if len(location) > 50 {
		return fmt.Errorf("location must not exceed 50 characters")
	}
	if website != "" {
		if len(website) > 200 {
			return fmt.Errorf("website must not exceed 200 characters")
		}
		if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
			return fmt.Errorf("website must be an http or https URL")
		}
	}
	return nil
}
