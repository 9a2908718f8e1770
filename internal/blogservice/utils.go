package blogservice

import (
	"regexp"
	"strings"
)

const wordsPerMinute = 200

var (
	slugInvalidRX    = regexp.MustCompile(`[^a-z0-9 -]`)
	slugWhitespaceRX = regexp.MustCompile(`\s+`)
	slugHyphensRX    = regexp.MustCompile(`-+`)
)

// GenerateSlug derives a URL-safe slug from a title. It does not guarantee
// uniqueness; the backend enforces that.
func GenerateSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidRX.ReplaceAllString(slug, "")
	slug = slugWhitespaceRX.ReplaceAllString(slug, "-")
	slug = slugHyphensRX.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// CalculateReadTime estimates minutes to read content at 200 words per minute,
// rounded up, never less than one.
func CalculateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
