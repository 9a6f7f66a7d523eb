package utils

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

	// Front-end routes that share the profile URL namespace.
	reservedUsernames = map[string]struct{}{
		"admin": {}, "api": {}, "dashboard": {}, "health": {}, "login": {},
		"logout": {}, "register": {}, "settings": {}, "signup": {},
	}
)

// ValidateUsername validates username format.
// Rules: 3-30 characters, letters, numbers, underscores only, must not start
// with an underscore, not a reserved route name. Usernames appear in public
// profile URLs.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)

	if len(username) < MinUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	}

	if len(username) > MaxUsernameLength {
		return &ValidationError{Field: "username", Message: "Username must be at most 30 characters"}
	}

	if !usernameRegex.MatchString(username) {
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}

	if !(unicode.IsLetter(rune(username[0])) || unicode.IsNumber(rune(username[0]))) {
		return &ValidationError{Field: "username", Message: "Username must start with a letter or number"}
	}

	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return &ValidationError{Field: "username", Message: "Username is reserved"}
	}

	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
