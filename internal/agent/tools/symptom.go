package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/store"
	logx "github.com/partdesk/server/pkg/logger"
)

// ===================================
// Symptom/Repair Tools
// ===================================

type GetSymptomsInput struct {
	ApplianceType string `json:"appliance_type"`
	Symptom       string `json:"symptom,omitempty"`
}

type GetSymptomsOutput struct {
	ApplianceType model.ApplianceType `json:"appliance_type"`
	Symptoms      []store.Symptom     `json:"symptoms"`
	Matched       string              `json:"matched_symptom,omitempty"`
	Parts         []store.Part        `json:"parts,omitempty"`
	Error         string              `json:"error,omitempty"`
}

func (r *Registry) getSymptomsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_symptoms",
			Desc: "Get symptom info for an appliance type. When a symptom description is provided, the best-matching known symptom is returned along with the parts that commonly fix it. Without one, all known symptoms are listed.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"appliance_type": {
					Type:     "string",
					Desc:     "Either 'refrigerator' or 'dishwasher'.",
					Required: true,
				},
				"symptom": {
					Type: "string",
					Desc: "Optional symptom description to match, e.g. 'ice maker not working'.",
				},
			}),
		},
		func(ctx context.Context, in *GetSymptomsInput) (*GetSymptomsOutput, error) {
			appliance := model.ParseAppliance(in.ApplianceType)
			if !appliance.Supported() {
				return &GetSymptomsOutput{
					ApplianceType: appliance,
					Symptoms:      []store.Symptom{},
					Error:         fmt.Sprintf("appliance_type must be refrigerator or dishwasher, got %q", in.ApplianceType),
				}, nil
			}

			all, err := r.deps.Store.Symptoms(ctx, appliance)
			if err != nil {
				return nil, err
			}
			if in.Symptom == "" {
				if all == nil {
					all = []store.Symptom{}
				}
				return &GetSymptomsOutput{ApplianceType: appliance, Symptoms: all}, nil
			}

			matched := matchSymptom(all, in.Symptom)
			if matched == nil && r.deps.SymptomMatcher != nil {
				matched = r.matchSymptomLLM(ctx, all, in.Symptom)
			}
			if matched == nil {
				return &GetSymptomsOutput{
					ApplianceType: appliance,
					Symptoms:      all,
					Error:         fmt.Sprintf("No known symptom matches %q; returning all symptoms", in.Symptom),
				}, nil
			}

			parts, err := r.deps.Store.PartsForSymptom(ctx, appliance, matched.Name)
			if err != nil {
				return nil, err
			}
			return &GetSymptomsOutput{
				ApplianceType: appliance,
				Symptoms:      []store.Symptom{*matched},
				Matched:       matched.Name,
				Parts:         parts,
			}, nil
		},
	)
}

// matchSymptom finds a known symptom by substring, either direction.
func matchSymptom(all []store.Symptom, described string) *store.Symptom {
	needle := strings.ToLower(strings.TrimSpace(described))
	for i := range all {
		name := strings.ToLower(all[i].Name)
		if strings.Contains(name, needle) || strings.Contains(needle, name) {
			return &all[i]
		}
	}
	return nil
}

// matchSymptomLLM asks a small model to pick the closest known symptom.
// Failures fall back to no match rather than erroring the tool call.
func (r *Registry) matchSymptomLLM(ctx context.Context, all []store.Symptom, described string) *store.Symptom {
	if len(all) == 0 {
		return nil
	}
	var names []string
	for _, s := range all {
		names = append(names, s.Name)
	}
	prompt := fmt.Sprintf(
		"A customer describes an appliance problem as: %q\n\nKnown symptoms:\n- %s\n\nRespond with the single best-matching symptom name from the list, exactly as written, or NONE if nothing fits.",
		described, strings.Join(names, "\n- "),
	)
	out, err := r.deps.SymptomMatcher.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Warn().Err(err).Msg("symptom matching LLM failed")
		return nil
	}
	answer := strings.ToLower(strings.TrimSpace(out.Content))
	for i := range all {
		if strings.Contains(answer, strings.ToLower(all[i].Name)) {
			return &all[i]
		}
	}
	return nil
}

type GetRepairInstructionsInput struct {
	ApplianceType string `json:"appliance_type"`
	Symptom       string `json:"symptom"`
}

type GetRepairInstructionsOutput struct {
	ApplianceType model.ApplianceType `json:"appliance_type"`
	Symptom       string              `json:"symptom"`
	Guides        []store.RepairGuide `json:"instructions"`
	Error         string              `json:"error,omitempty"`
}

func (r *Registry) getRepairInstructionsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_repair_instructions",
			Desc: "Get step-by-step troubleshooting instructions for a symptom. This tool is for TROUBLESHOOTING problems like 'ice maker not making ice', NOT for installation help. For installation, use get_part for difficulty and video, plus search_qna and search_repair_stories for community tips.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"appliance_type": {
					Type:     "string",
					Desc:     "Either 'refrigerator' or 'dishwasher'.",
					Required: true,
				},
				"symptom": {
					Type:     "string",
					Desc:     "The problem description, e.g. 'Ice maker not making ice'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetRepairInstructionsInput) (*GetRepairInstructionsOutput, error) {
			appliance := model.ParseAppliance(in.ApplianceType)
			if !appliance.Supported() {
				return &GetRepairInstructionsOutput{
					ApplianceType: appliance,
					Symptom:       in.Symptom,
					Guides:        []store.RepairGuide{},
					Error:         fmt.Sprintf("appliance_type must be refrigerator or dishwasher, got %q", in.ApplianceType),
				}, nil
			}
			if in.Symptom == "" {
				return nil, fmt.Errorf("symptom is required")
			}
			guides, err := r.deps.Store.RepairGuides(ctx, appliance, in.Symptom)
			if err != nil {
				return nil, err
			}
			out := &GetRepairInstructionsOutput{
				ApplianceType: appliance,
				Symptom:       in.Symptom,
				Guides:        guides,
			}
			if len(guides) == 0 {
				out.Guides = []store.RepairGuide{}
				out.Error = fmt.Sprintf("No repair instructions found for symptom '%s' on %s", in.Symptom, appliance)
			}
			return out, nil
		},
	)
}
