package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeArgumentsTrimsStrings(t *testing.T) {
	out := sanitizeArguments(`{"ps_number":"  PS11752778  ","query":" door bin "}`)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "PS11752778", m["ps_number"])
	assert.Equal(t, "door bin", m["query"])
}

func TestSanitizeArgumentsClampsLimit(t *testing.T) {
	var m map[string]any

	require.NoError(t, json.Unmarshal([]byte(sanitizeArguments(`{"limit":50}`)), &m))
	assert.Equal(t, float64(10), m["limit"])

	require.NoError(t, json.Unmarshal([]byte(sanitizeArguments(`{"limit":0}`)), &m))
	assert.Equal(t, float64(1), m["limit"])

	require.NoError(t, json.Unmarshal([]byte(sanitizeArguments(`{"limit":3}`)), &m))
	assert.Equal(t, float64(3), m["limit"])
}

// Non-limit numbers and nested values pass through untouched.
func TestSanitizeArgumentsLeavesOtherValues(t *testing.T) {
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(sanitizeArguments(`{"rating":50,"nested":{"a":" b "}}`)), &m))
	assert.Equal(t, float64(50), m["rating"])
	assert.Equal(t, map[string]any{"a": " b "}, m["nested"])
}

func TestSanitizeArgumentsPassesThroughUnparseable(t *testing.T) {
	assert.Equal(t, "not json", sanitizeArguments("not json"))
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 1, clampInt(-5, 1, 10))
	assert.Equal(t, 10, clampInt(99, 1, 10))
	assert.Equal(t, 7, clampInt(7, 1, 10))
}
