package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// Text strips every tag. Entities bluemonday escapes on the way out are
// turned back into characters, since the result is stored as plain text.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// HTML keeps basic formatting and drops scripts, handlers and styles.
func HTML(input string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(input))
}
