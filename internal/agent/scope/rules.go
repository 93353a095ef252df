package scope

import (
	"regexp"
	"strings"
)

// Verdict is the outcome of the rule stage.
type Verdict int

const (
	// VerdictUnclear means no rule fired and the LLM stage must decide.
	VerdictUnclear Verdict = iota
	VerdictInScope
	VerdictOutOfScope
)

// rule pairs a trigger pattern with an optional suppressor. When unless
// also matches, the rule does not fire. RE2 has no lookaround, so the
// "washer but not dishwasher" case is expressed this way.
type rule struct {
	match  *regexp.Regexp
	unless *regexp.Regexp
}

// Keyword rules that strongly indicate in-scope queries.
var inScopeRules = compileRules([]string{
	// Appliance types
	`\brefrigerator\b`, `\bfridge\b`, `\bdishwasher\b`,
	`\bfreezer\b`, `\bice\s*maker\b`,
	// Part-related
	`\bps\d+\b`, // PS numbers like PS11752778
	`\bpart\s*(number|#)?\b`,
	`\bcompatib(le|ility)\b`,
	`\binstall(ation)?\b`,
	`\breplace(ment)?\b`,
	// Common parts
	`\bwater\s*filter\b`, `\bdoor\s*(bin|shelf|gasket)\b`,
	`\bcompressor\b`, `\bthermostat\b`, `\bdefrost\b`,
	`\bdrain\s*(pump|hose)\b`, `\bspray\s*arm\b`, `\brack\b`,
	// Symptoms
	`\bleaking\b`, `\bnot\s*(cooling|freezing|working|draining)\b`,
	`\bnoisy\b`, `\bwon'?t\s*(start|run|drain)\b`,
	// Common refrigerator/dishwasher brands
	`\bwhirlpool\b`, `\bge\b`, `\bsamsung\b`, `\blg\b`,
	`\bkitchenaid\b`, `\bmaytag\b`, `\bfrigidaire\b`, `\bbosch\b`,
	`\bkenmore\b`,
})

// Keyword rules that strongly indicate out-of-scope queries.
var outOfScopeRules = []rule{
	{match: regexp.MustCompile(`\bwashing\s*machine\b`)},
	{match: regexp.MustCompile(`\bwasher\b`), unless: regexp.MustCompile(`\bwasher\s*dish`)},
	{match: regexp.MustCompile(`\bdryer\b`)},
	{match: regexp.MustCompile(`\boven\b`)},
	{match: regexp.MustCompile(`\bstove\b`)},
	{match: regexp.MustCompile(`\bmicrowave\b`)},
	{match: regexp.MustCompile(`\bair\s*condition(er|ing)?\b`)},
	{match: regexp.MustCompile(`\bhvac\b`)},
	{match: regexp.MustCompile(`\bweather\b`)},
	{match: regexp.MustCompile(`\bnews\b`)},
	{match: regexp.MustCompile(`\bsports\b`)},
}

func compileRules(patterns []string) []rule {
	out := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, rule{match: regexp.MustCompile(p)})
	}
	return out
}

// CheckRules runs the fast keyword stage. Out-of-scope signals win over
// in-scope ones, so "oven part" is rejected even though "part" matches.
// Returns the verdict and the pattern that decided it.
func CheckRules(query string) (Verdict, string) {
	q := strings.ToLower(query)

	for _, r := range outOfScopeRules {
		if r.match.MatchString(q) && (r.unless == nil || !r.unless.MatchString(q)) {
			return VerdictOutOfScope, r.match.String()
		}
	}
	for _, r := range inScopeRules {
		if r.match.MatchString(q) {
			return VerdictInScope, r.match.String()
		}
	}
	return VerdictUnclear, ""
}
