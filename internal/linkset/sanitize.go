package linkset

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// SanitizeTitle strips markup from a card's display text: HTML tags are
// removed, entities are resolved and runs of whitespace collapse to one
// space.
func SanitizeTitle(raw string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var builder strings.Builder
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			break
		}
		if tokenType == html.TextToken {
			builder.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(builder.String(), " "))
}

// Truncate bounds a title to max runes. Titles are stored length-bounded so
// one pasted wall of text cannot bloat the serialized set.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// TruncateEllipsis bounds display text to max runes, marking the cut.
func TruncateEllipsis(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
