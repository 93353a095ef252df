package scope

import (
	"context"
	"fmt"
	"strings"

	chatmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/model"
	logx "github.com/partdesk/server/pkg/logger"
)

// RejectionMessage is the fixed response for out-of-scope queries.
const RejectionMessage = `I'm sorry, but I can only help with **refrigerator and dishwasher** parts and repairs.

I can assist you with:
- Finding parts for your refrigerator or dishwasher
- Checking part compatibility with your model
- Troubleshooting refrigerator or dishwasher issues
- Installation guidance for parts

Is there anything related to refrigerators or dishwashers I can help you with?`

const classifyPrompt = `You are a scope checker for PartDesk, an appliance parts retailer.

Your ONLY job is to determine if a user query is about refrigerator or dishwasher parts/repairs.

Keep in mind that if a query is referring back to previous queries about refrigerators or dishwashers
then it IS IN SCOPE! Even if the current query doesnt explicitly have a reference to those.


RESPOND WITH ONLY ONE OF:
- "IN_SCOPE" if the query is about:
  - Refrigerator parts, repairs, symptoms, installation
  - Dishwasher parts, repairs, symptoms, installation
  - Part numbers (PS numbers), model numbers, compatibility
  - Troubleshooting refrigerator or dishwasher issues
  - General questions about these appliances

- "OUT_OF_SCOPE" if the query is about:
  - Other appliances (washing machines, dryers, ovens, microwaves, etc.)
  - Non-appliance topics
  - Anything unrelated to refrigerators or dishwashers

Examples:
- "How do I fix my ice maker?" -> IN_SCOPE (refrigerator)
- "Is PS11752778 compatible with my model?" -> IN_SCOPE (part question)
- "My dishwasher is leaking" -> IN_SCOPE (dishwasher)
- "How do I fix my washing machine?" -> OUT_OF_SCOPE (different appliance)
- "What's the weather today?" -> OUT_OF_SCOPE (unrelated)

User query: %s

Your response (IN_SCOPE or OUT_OF_SCOPE):`

const maxHistoryChars = 500

// Classifier runs the two-stage scope check: keyword rules for the
// clear-cut cases, an LLM with recent conversation context for the rest.
type Classifier struct {
	chat         chatmodel.BaseChatModel
	contextTurns int
}

// NewClassifier builds a classifier. contextTurns bounds how many recent
// history entries the LLM stage sees.
func NewClassifier(chat chatmodel.BaseChatModel, contextTurns int) *Classifier {
	if contextTurns <= 0 {
		contextTurns = 4
	}
	return &Classifier{chat: chat, contextTurns: contextTurns}
}

// Classify decides whether a query is in scope. The LLM stage fails
// closed: any model error or unparseable answer counts as out of scope.
func (c *Classifier) Classify(ctx context.Context, query string, history []model.Turn) model.ScopeDecision {
	if verdict, pattern := CheckRules(query); verdict != VerdictUnclear {
		return model.ScopeDecision{
			InScope: verdict == VerdictInScope,
			Stage:   "rules",
			Reason:  pattern,
		}
	}

	prompt := fmt.Sprintf(classifyPrompt, query) + historyContext(history, c.contextTurns)
	out, err := c.chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Warn().Err(err).Msg("scope LLM failed, treating query as out of scope")
		return model.ScopeDecision{InScope: false, Stage: "llm", Reason: "model error"}
	}

	answer := strings.ToUpper(strings.TrimSpace(out.Content))
	return model.ScopeDecision{
		InScope: strings.Contains(answer, "IN_SCOPE"),
		Stage:   "llm",
		Reason:  answer,
	}
}

func historyContext(history []model.Turn, maxTurns int) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	var b strings.Builder
	b.WriteString("\n\nRecent conversation (for context):\n")
	for _, t := range history {
		role := "Assistant"
		if t.Role == model.RoleUser {
			role = "User"
		}
		content := t.Content
		if len(content) > maxHistoryChars {
			content = content[:maxHistoryChars] + "..."
		}
		fmt.Fprintf(&b, "%s: %s\n", role, content)
	}
	b.WriteString("\nIf the current query is a follow-up to this conversation about refrigerators/dishwashers, it's IN_SCOPE.\n")
	return b.String()
}
