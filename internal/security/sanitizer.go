// Package security cleans user-submitted text and files before they are
// forwarded to the backend.
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTextLength bounds post, comment and bio text in runes.
const MaxTextLength = 2000

var htmlPolicy = bluemonday.StrictPolicy()

// maxUnescapePasses bounds how many layers of entity encoding CleanText
// peels off.
const maxUnescapePasses = 8

// CleanText strips markup, null bytes and surrounding whitespace and
// truncates to MaxTextLength runes. The result is plain text; escaping is
// left to the template that renders it.
func CleanText(input string) string {
	input = strings.TrimSpace(stripMarkup(strings.ReplaceAll(input, "\x00", "")))
	if utf8.RuneCountInString(input) > MaxTextLength {
		input = string([]rune(input)[:MaxTextLength])
	}
	return input
}

// stripMarkup sanitizes and unescapes until the text stops changing, so
// entity-encoded tags cannot survive as markup. Input that never settles is
// returned still escaped.
func stripMarkup(s string) string {
	for range maxUnescapePasses {
		next := html.UnescapeString(htmlPolicy.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	return htmlPolicy.Sanitize(s)
}

// IsBlank reports whether input has nothing left after CleanText.
func IsBlank(input string) bool {
	return CleanText(input) == ""
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImageType reports whether contentType is an accepted avatar format.
func ValidateImageType(contentType string) bool {
	ct, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	return imageTypes[strings.TrimSpace(ct)]
}

// ValidateFileSize checks if size is within limit.
func ValidateFileSize(size, limit int64) bool {
	return size > 0 && size <= limit
}
