package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcSanitizer    = bluemonday.UGCPolicy()
	strictSanitizer = bluemonday.StrictPolicy()
)

// Sanitize cleans HTML content to prevent XSS attacks while keeping
// user-generated formatting (used for blog post bodies).
func Sanitize(input string) string {
	return ugcSanitizer.Sanitize(input)
}

// SanitizeStrict strips all markup. Used for plain-text fields such as
// titles and contact form submissions.
func SanitizeStrict(input string) string {
	return strictSanitizer.Sanitize(input)
}
