package utils

import (
	"errors"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername enforces the account username rules: 3-20 characters,
// letters, digits and underscores only.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(username) > 20 {
		return errors.New("username must be at most 20 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username may only contain letters, numbers and underscores")
	}
	return nil
}

// NormalizeUsername lowercases and trims a username for storage and lookup.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
