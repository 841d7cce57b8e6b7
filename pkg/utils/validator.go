package utils

import "regexp"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether the string looks like an email address
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters from user supplied text
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}
