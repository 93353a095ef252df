// Package prompts renders the system prompts for the planner, executor and
// synthesizer stages from embedded Go templates.
package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/planner_prompt.txt
var plannerPrompt string

//go:embed template/executor_prompt.txt
var executorPrompt string

//go:embed template/synthesizer_prompt.txt
var synthesizerPrompt string

// RenderPlanner renders the planner prompt and triggers prompt callbacks.
func RenderPlanner(ctx context.Context, toolDocs, sessionContext, query string) (string, error) {
	return render(ctx, plannerPrompt, map[string]any{
		"ToolDocs":       toolDocs,
		"SessionContext": sessionContext,
		"Query":          query,
	})
}

// RenderExecutorSystem renders the executor system prompt. The current
// query travels as a separate user message.
func RenderExecutorSystem(ctx context.Context, toolDocs, sessionContext string) (string, error) {
	return render(ctx, executorPrompt, map[string]any{
		"ToolDocs":       toolDocs,
		"SessionContext": sessionContext,
	})
}

// RenderSynthesizer renders the response synthesis prompt.
func RenderSynthesizer(ctx context.Context, query, sessionContext, results, synthesisHint string) (string, error) {
	return render(ctx, synthesizerPrompt, map[string]any{
		"Query":          query,
		"SessionContext": sessionContext,
		"Results":        results,
		"SynthesisHint":  synthesisHint,
	})
}

// render formats a template via the Eino prompt component to both
// substitute variables and emit prompt callbacks.
func render(ctx context.Context, tmpl string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}
