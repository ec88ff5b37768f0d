package respond

import (
	"github.com/stafflane/hr-copilot/internal/domain"
	"github.com/stafflane/hr-copilot/internal/policy"
)

// Filter scrubs generated text against the role's ordered redaction
// patterns. It is a best-effort secondary control: the gate and the
// scoped fetchers are the authoritative access checks, and nothing this
// filter catches should have entered the context in the first place.
type Filter struct{}

// NewFilter creates the response filter.
func NewFilter() *Filter { return &Filter{} }

// Apply runs the role's redaction list in order, replacing matches with
// the fixed placeholder, and returns the scrubbed text plus the names of
// the patterns that fired.
func (f *Filter) Apply(role domain.Role, text string, tables *policy.Tables) (string, []string) {
	var fired []string
	scrubbed := text
	for _, redaction := range tables.Redactions[role] {
		if redaction.Pattern.MatchString(scrubbed) {
			fired = append(fired, redaction.Name)
			scrubbed = redaction.Pattern.ReplaceAllString(scrubbed, policy.RedactedPlaceholder)
		}
	}
	return scrubbed, fired
}
