// Package sanitize masks sensitive substrings before query/response text
// is persisted to the audit log. Every audit write path goes through
// Scrub; stores apply it themselves so no caller can bypass it.
package sanitize

import "regexp"

var (
	credentialRegex = regexp.MustCompile(`(?i)\b(password|passwd|secret|token|api[_-]?key|bearer)\b\s*[:=]?\s*\S+`)
	cardRegex       = regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)
	amountRegex     = regexp.MustCompile(`(?i)(?:\$|₹|€|£|usd|inr|eur)\s?\d[\d,]*(?:\.\d+)?`)
	idRegex         = regexp.MustCompile(`\b\d{6,}\b`)
)

// Scrub masks credential-looking substrings, card-like numbers, monetary
// amounts, and long id-like numbers. Ordering matters: credentials go
// first so a token containing digits is not half-masked as an id.
func Scrub(text string) string {
	scrubbed := credentialRegex.ReplaceAllString(text, "[CREDENTIAL]")
	scrubbed = cardRegex.ReplaceAllString(scrubbed, "[CARD]")
	scrubbed = amountRegex.ReplaceAllString(scrubbed, "[AMOUNT]")
	scrubbed = idRegex.ReplaceAllString(scrubbed, "[ID]")
	return scrubbed
}

// ScrubAll applies Scrub to each element of a list.
func ScrubAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Scrub(item)
	}
	return out
}
