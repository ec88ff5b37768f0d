package gate

import (
	"regexp"
	"strings"
)

// CrossIdentityDetector flags query text that references another
// identity's records: possessive references to a third party, or
// collective nouns ("team", "everyone") combined with a sensitive noun.
// Regex heuristics are easily bypassed by paraphrase; this detector is a
// documented secondary control and the role/intent/identity checks
// remain the authoritative ones.
type CrossIdentityDetector struct {
	possessive  *regexp.Regexp
	collective  *regexp.Regexp
	namedSalary *regexp.Regexp
	earnings    *regexp.Regexp
}

// Possessives that refer back to the requester or a non-person subject
// rather than a third party. "my team's attendance" stays allowed; a
// name before 's does not.
var ownPossessives = map[string]bool{
	"my": true, "our": true, "team": true, "company": true,
	"everyone": true, "it": true, "today": true, "week": true,
	"month": true, "year": true,
}

// NewCrossIdentityDetector compiles the pattern set.
func NewCrossIdentityDetector() *CrossIdentityDetector {
	return &CrossIdentityDetector{
		possessive: regexp.MustCompile(
			`(?i)\b([a-z]+)'s\s+(salary|pay|compensation|payslip|performance|rating|review|leave|attendance|profile)`),
		collective: regexp.MustCompile(
			`(?i)\b(team|everyone|everybody|colleague|colleagues|coworker|coworkers|co-worker|all employees|other employees)\b[^.?!]*\b(salary|salaries|pay|payroll|compensation|performance|rating|ratings|review|reviews)\b`),
		namedSalary: regexp.MustCompile(
			`(?i)\b(salary|compensation|rating|performance)\s+of\s+[a-z]+`),
		earnings: regexp.MustCompile(
			`(?i)\bhow much\s+(does|do|did)\b[^.?!]*\b(make|earn|get paid)\b`),
	}
}

// Detect reports whether the text matches an other-identity pattern and
// names the pattern that fired.
func (d *CrossIdentityDetector) Detect(text string) (bool, string) {
	for _, m := range d.possessive.FindAllStringSubmatch(text, -1) {
		if !ownPossessives[strings.ToLower(m[1])] {
			return true, "possessive_third_party"
		}
	}
	if d.collective.MatchString(text) {
		return true, "collective_sensitive"
	}
	if d.namedSalary.MatchString(text) {
		return true, "named_sensitive_lookup"
	}
	if d.earnings.MatchString(text) {
		return true, "earnings_probe"
	}
	return false, ""
}
