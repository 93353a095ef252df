package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRulesInScope(t *testing.T) {
	cases := []struct {
		query string
	}{
		{"My fridge is leaking"},
		{"my Dishwasher won't drain"},
		{"is PS11752778 in stock?"},
		{"my ice maker not working"},
		{"need a new water filter"},
		{"whirlpool door gasket"},
	}
	for _, tc := range cases {
		verdict, pattern := CheckRules(tc.query)
		assert.Equal(t, VerdictInScope, verdict, tc.query)
		assert.NotEmpty(t, pattern, tc.query)
	}
}

func TestCheckRulesOutOfScope(t *testing.T) {
	cases := []string{
		"my washing machine won't spin",
		"washer is shaking violently",
		"dryer makes a squealing noise",
		"what's the weather today",
		"microwave sparks when running",
	}
	for _, q := range cases {
		verdict, _ := CheckRules(q)
		assert.Equal(t, VerdictOutOfScope, verdict, q)
	}
}

// Out-of-scope signals beat in-scope ones even when both match.
func TestCheckRulesOutOfScopeWins(t *testing.T) {
	verdict, pattern := CheckRules("I need a replacement part for my oven")
	assert.Equal(t, VerdictOutOfScope, verdict)
	assert.Equal(t, `\boven\b`, pattern)
}

// "washer" inside "washer dish..." phrasing must not trip the washer rule.
func TestCheckRulesWasherSuppressor(t *testing.T) {
	verdict, _ := CheckRules("my washer dishwasher combo won't start")
	assert.Equal(t, VerdictInScope, verdict)
}

func TestCheckRulesUnclear(t *testing.T) {
	verdict, pattern := CheckRules("what do you recommend?")
	assert.Equal(t, VerdictUnclear, verdict)
	assert.Empty(t, pattern)
}
