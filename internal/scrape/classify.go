package scrape

import (
	"context"
	"fmt"
	"strings"

	chatmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/store"
	logx "github.com/partdesk/server/pkg/logger"
)

// Classifier decides which appliance a scraped part belongs to, since
// live pages carry no reliable appliance field.
type Classifier struct {
	chat chatmodel.BaseChatModel
}

// NewClassifier wraps a chat model for appliance classification.
func NewClassifier(chat chatmodel.BaseChatModel) *Classifier {
	return &Classifier{chat: chat}
}

const classifyPrompt = `You are classifying an appliance replacement part.
Based on the part details below, answer with exactly one word:
refrigerator, dishwasher, or other.

Part name: %s
Brand: %s
Description: %s

Answer:`

// Classify returns the appliance type for a scraped part. Anything the
// model does not clearly place in a refrigerator or dishwasher comes
// back as "other" so downstream scope checks treat it as foreign.
func (c *Classifier) Classify(ctx context.Context, part *store.Part) (model.ApplianceType, error) {
	msg := schema.UserMessage(fmt.Sprintf(classifyPrompt, part.Name, part.Brand, clip(part.Description, 300)))
	out, err := c.chat.Generate(ctx, []*schema.Message{msg})
	if err != nil {
		return "", fmt.Errorf("classify appliance: %w", err)
	}

	answer := strings.ToLower(out.Content)
	var appliance model.ApplianceType
	switch {
	case strings.Contains(answer, string(model.ApplianceRefrigerator)):
		appliance = model.ApplianceRefrigerator
	case strings.Contains(answer, string(model.ApplianceDishwasher)):
		appliance = model.ApplianceDishwasher
	default:
		appliance = "other"
	}

	logx.Debug().
		Str("ps_number", part.PSNumber).
		Str("appliance", string(appliance)).
		Msg("classified scraped part")
	return appliance, nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
