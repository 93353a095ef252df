package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/partdesk/server/internal/agent/model"
)

const (
	historyClip   = 300
	synthesisClip = 500
)

// PlannerSessionContext formats the session for the planner prompt, with
// explicit reference slots so the model binds pronouns to real PS numbers.
func PlannerSessionContext(s *model.SessionState, historyTurns int) string {
	var parts []string

	if history := s.RecentHistory(historyTurns); len(history) > 0 {
		parts = append(parts, "## Recent Conversation")
		for _, turn := range history {
			parts = append(parts, fmt.Sprintf("%s: %s", roleLabel(turn.Role), clip(turn.Content, historyClip)))
		}
		parts = append(parts, "")
	}

	if len(s.DiscussedParts) > 0 {
		parts = append(parts, "## Parts from Previous Response")
		// The first part is the top recommendation: search results are
		// sorted best-first.
		first := s.FirstPart()
		parts = append(parts, fmt.Sprintf("**Top/first recommendation: %s** (use this for 'top recommendation', 'best', 'first one')", first.PSNumber))
		if len(s.DiscussedParts) > 1 {
			last := s.CurrentPart()
			parts = append(parts, fmt.Sprintf("**Most recently mentioned: %s** (use this for 'this part', 'it', 'last one')", last.PSNumber))
			parts = append(parts, fmt.Sprintf("All discussed parts (in order): %s", strings.Join(psNumbers(s.DiscussedParts, 10), ", ")))
		}
	}

	if s.Focus != "" {
		parts = append(parts, fmt.Sprintf("Appliance type: %s", s.Focus))
	}
	for appliance, ctx := range s.Appliances {
		for _, m := range ctx.Models {
			parts = append(parts, fmt.Sprintf("User's %s model: %s", appliance, m))
		}
		if len(ctx.Symptoms) > 0 {
			parts = append(parts, fmt.Sprintf("Current symptom: %s", ctx.Symptoms[len(ctx.Symptoms)-1]))
		}
	}

	if len(parts) == 0 {
		return "No previous context. User has not discussed any parts yet."
	}
	return strings.Join(parts, "\n")
}

// ExecutorSessionContext formats the session for the executor prompt.
func ExecutorSessionContext(s *model.SessionState, historyTurns int) string {
	var parts []string

	if history := s.RecentHistory(historyTurns); len(history) > 0 {
		parts = append(parts, "## Recent Conversation")
		for _, turn := range history {
			parts = append(parts, fmt.Sprintf("**%s:** %s", roleLabel(turn.Role), clip(turn.Content, historyClip)))
		}
	}

	if len(s.DiscussedParts) > 0 {
		parts = append(parts, "\n## Recently Discussed Parts")
		parts = append(parts, fmt.Sprintf("PS numbers: %s", strings.Join(recentPSNumbers(s.DiscussedParts, 5), ", ")))
		parts = append(parts, "(Use these when user says 'this part', 'the first one', etc.)")
	}

	if len(parts) == 0 {
		return "No prior context."
	}
	return strings.Join(parts, "\n")
}

// SynthesisSessionContext formats the session for the synthesizer prompt,
// with a longer history window and looser clipping.
func SynthesisSessionContext(s *model.SessionState, historyTurns int) string {
	var parts []string

	if history := s.RecentHistory(historyTurns); len(history) > 0 {
		parts = append(parts, "## Recent Conversation")
		for _, turn := range history {
			parts = append(parts, fmt.Sprintf("**%s:** %s", roleLabel(turn.Role), clip(turn.Content, synthesisClip)))
		}
	}

	if len(s.DiscussedParts) > 0 {
		parts = append(parts, fmt.Sprintf("\nRecently discussed parts: %s", strings.Join(recentPSNumbers(s.DiscussedParts, 5), ", ")))
	}

	if len(parts) == 0 {
		return "No prior context."
	}
	return strings.Join(parts, "\n")
}

// FormatResults renders the gathered tool observations as a markdown
// transcript for the synthesizer.
func FormatResults(observations []model.ToolObservation, agentAnalysis string) string {
	var b strings.Builder
	b.WriteString("## Executor Results\n")

	for _, obs := range observations {
		name := obs.Tool
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintf(&b, "\n### Tool: %s\n", name)
		if obs.Description != "" {
			fmt.Fprintf(&b, "%s\n", obs.Description)
		}
		if obs.Err != "" {
			fmt.Fprintf(&b, "Error: %s\n", obs.Err)
			continue
		}
		b.WriteString("```json\n")
		b.WriteString(indentJSON(obs.Payload))
		b.WriteString("\n```\n")
	}

	if agentAnalysis != "" {
		fmt.Fprintf(&b, "\n### Agent's Analysis\n%s\n", agentAnalysis)
	}
	return b.String()
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func roleLabel(role string) string {
	if role == model.RoleUser {
		return "User"
	}
	return "Assistant"
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func psNumbers(parts []model.PartCard, max int) []string {
	if len(parts) > max {
		parts = parts[:max]
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.PSNumber)
	}
	return out
}

func recentPSNumbers(parts []model.PartCard, max int) []string {
	if len(parts) > max {
		parts = parts[len(parts)-max:]
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.PSNumber)
	}
	return out
}
