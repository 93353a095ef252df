package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlanner(t *testing.T) {
	got, err := RenderPlanner(context.Background(), "### Tools\n- `get_part`: details", "No previous context.", "my fridge is leaking")
	require.NoError(t, err)

	assert.Contains(t, got, "- `get_part`: details")
	assert.Contains(t, got, "No previous context.")
	assert.Contains(t, got, "my fridge is leaking")
	assert.Contains(t, got, `"query_type"`)
	assert.NotContains(t, got, "{{")
}

func TestRenderExecutorSystem(t *testing.T) {
	got, err := RenderExecutorSystem(context.Background(), "tool docs here", "No prior context.")
	require.NoError(t, err)

	assert.Contains(t, got, "tool docs here")
	assert.Contains(t, got, "No prior context.")
	assert.NotContains(t, got, "{{")
}

func TestRenderSynthesizerWithHint(t *testing.T) {
	got, err := RenderSynthesizer(context.Background(), "does it fit?", "No prior context.", "## Executor Results\n", "lead with compatibility")
	require.NoError(t, err)

	assert.Contains(t, got, "does it fit?")
	assert.Contains(t, got, "## Executor Results")
	assert.Contains(t, got, "lead with compatibility")
	assert.NotContains(t, got, "{{")
}

func TestRenderSynthesizerWithoutHint(t *testing.T) {
	got, err := RenderSynthesizer(context.Background(), "q", "ctx", "results", "")
	require.NoError(t, err)

	assert.NotContains(t, got, "lead with")
	assert.NotContains(t, got, "{{")
}
