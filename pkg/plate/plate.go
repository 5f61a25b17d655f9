// Package plate normalizes and classifies vehicle registration marks.
//
// Classification runs against an ordered set of regex rules loaded from the
// store at construction time, with built-in UK patterns as the fallback when
// no rules are configured. Everything here is deterministic and does no I/O
// after construction, so the ingestion hot path can call it freely.
package plate

import (
	"regexp"
	"strings"

	"github.com/parkwarden/parkwarden/pkg/models"
)

// compiledRule is a classification rule ready for matching.
type compiledRule struct {
	name    string
	pattern *regexp.Regexp
	status  models.ValidationStatus
}

// builtinRules cover the UK formats in circulation plus a permissive
// international catch-all. Order matters: first match wins.
var builtinRules = []struct {
	name    string
	pattern string
	status  models.ValidationStatus
}{
	{"uk_current", `^[A-Z]{2}[0-9]{2}[A-Z]{3}$`, models.PlateUKValid},
	{"uk_prefix", `^[A-Z][0-9]{1,3}[A-Z]{3}$`, models.PlateUKValid},
	{"uk_suffix", `^[A-Z]{3}[0-9]{1,3}[A-Z]$`, models.PlateUKValid},
	{"uk_dateless", `^[0-9]{1,4}[A-Z]{1,3}$`, models.PlateUKValid},
	{"uk_dateless_reversed", `^[A-Z]{1,3}[0-9]{1,4}$`, models.PlateUKValid},
	{"international", `^[A-Z0-9]{2,10}$`, models.PlateInternationalValid},
}

// Validator classifies normalized plates against its rule set.
type Validator struct {
	rules []compiledRule
}

// NewValidator compiles the given rules in priority order. Rules with
// patterns that fail to compile are skipped. When rules is empty the
// built-in UK set is used.
func NewValidator(rules []*models.PlateRule) *Validator {
	v := &Validator{}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			continue
		}
		v.rules = append(v.rules, compiledRule{
			name:    r.Name,
			pattern: re,
			status:  models.ValidationStatus(r.Status),
		})
	}
	if len(v.rules) == 0 {
		for _, b := range builtinRules {
			v.rules = append(v.rules, compiledRule{
				name:    b.name,
				pattern: regexp.MustCompile(b.pattern),
				status:  b.status,
			})
		}
	}
	return v
}

// Normalize uppercases a raw plate read and strips all whitespace.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.ToUpper(raw))
}

// Validate classifies a normalized plate. The second return value names the
// rule that matched, empty when the plate is invalid.
func (v *Validator) Validate(vrm string) (models.ValidationStatus, string) {
	for _, r := range v.rules {
		if r.pattern.MatchString(vrm) {
			return r.status, r.name
		}
	}
	return models.PlateInvalid, ""
}
