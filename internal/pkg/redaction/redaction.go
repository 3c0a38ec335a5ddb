// Package redaction scrubs number sequences that look like account or card
// numbers from text before it leaves the process.
package redaction

import "regexp"

const (
	NumberPlaceholder = "[REDACTED_NUMBER]"
	CardPlaceholder   = "[REDACTED_CARD]"
)

var (
	accountNumberPattern = regexp.MustCompile(`\b\d{8,20}\b`)
	cardPattern          = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
)

// Result is the scrubbed text and whether anything was replaced.
type Result struct {
	Text        string
	WasRedacted bool
}

// Redact replaces long digit runs first, then card-like runs that may be
// separated by spaces or hyphens. Applying it twice gives the same text.
func Redact(text string) Result {
	out := accountNumberPattern.ReplaceAllLiteralString(text, NumberPlaceholder)
	out = cardPattern.ReplaceAllLiteralString(out, CardPlaceholder)
	return Result{Text: out, WasRedacted: out != text}
}

// RedactPrompt returns only the scrubbed text.
func RedactPrompt(text string) string {
	return Redact(text).Text
}
