package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/store"
)

// ===================================
// Part Tools
// ===================================

type GetPartInput struct {
	PSNumber string `json:"ps_number"`
}

// GetPartOutput carries full part details, or an error payload. A part
// that belongs to an unsupported appliance is flagged out_of_scope
// instead of being described.
type GetPartOutput struct {
	*store.Part
	Error      string `json:"error,omitempty"`
	OutOfScope bool   `json:"out_of_scope,omitempty"`
}

func (r *Registry) getPartTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_part",
			Desc: "Get full details for a part by its PS number: name, price, description, installation difficulty and time, stock status. Check the appliance_type field in the result to verify the part is for the correct appliance.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ps_number": {
					Type:     "string",
					Desc:     "The PS number, e.g. 'PS11752778'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *GetPartInput) (*GetPartOutput, error) {
			if in.PSNumber == "" {
				return nil, fmt.Errorf("ps_number is required")
			}
			ps := strings.ToUpper(in.PSNumber)
			part, err := r.deps.Store.PartByPS(ctx, ps)
			if errors.Is(err, store.ErrNotFound) {
				return &GetPartOutput{
					Part:  &store.Part{PSNumber: ps},
					Error: fmt.Sprintf("Part %s not found in database", ps),
				}, nil
			}
			if err != nil {
				return &GetPartOutput{
					Part:  &store.Part{PSNumber: ps},
					Error: fmt.Sprintf("Database error looking up %s: %v", ps, err),
				}, nil
			}
			if part.Appliance != "" && !part.Appliance.Supported() {
				return &GetPartOutput{
					Part:       &store.Part{PSNumber: part.PSNumber, Name: part.Name, Appliance: part.Appliance},
					Error:      fmt.Sprintf("Part %s is for a %s, not a refrigerator or dishwasher.", part.PSNumber, part.Appliance),
					OutOfScope: true,
				}, nil
			}
			return &GetPartOutput{Part: part}, nil
		},
	)
}

type CheckCompatibilityInput struct {
	PSNumber    string `json:"ps_number"`
	ModelNumber string `json:"model_number"`
}

type CheckCompatibilityOutput struct {
	Compatible  bool                `json:"compatible"`
	PSNumber    string              `json:"ps_number,omitempty"`
	ModelNumber string              `json:"model_number,omitempty"`
	Appliance   model.ApplianceType `json:"appliance_type,omitempty"`
	Error       string              `json:"error,omitempty"`
	OutOfScope  bool                `json:"out_of_scope,omitempty"`
}

func (r *Registry) checkCompatibilityTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "check_compatibility",
			Desc: "Check if a specific part is compatible with an appliance model. Use this to verify compatibility before recommending a part; wrong parts waste customer money and don't fix the problem.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ps_number": {
					Type:     "string",
					Desc:     "The part's PS number, e.g. 'PS11752778'.",
					Required: true,
				},
				"model_number": {
					Type:     "string",
					Desc:     "The appliance model number, e.g. 'WDT780SAEM1'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *CheckCompatibilityInput) (*CheckCompatibilityOutput, error) {
			if in.PSNumber == "" || in.ModelNumber == "" {
				return nil, fmt.Errorf("ps_number and model_number are required")
			}

			// Reject foreign-appliance parts up front.
			part, err := r.deps.Store.PartByPS(ctx, in.PSNumber)
			if err == nil && part.Appliance != "" && !part.Appliance.Supported() {
				return &CheckCompatibilityOutput{
					PSNumber:   in.PSNumber,
					Appliance:  part.Appliance,
					Error:      fmt.Sprintf("Part %s is for a %s, not a refrigerator or dishwasher.", in.PSNumber, part.Appliance),
					OutOfScope: true,
				}, nil
			}
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}

			compatible, err := r.deps.Store.IsCompatible(ctx, in.PSNumber, in.ModelNumber)
			if err != nil {
				return nil, err
			}
			out := &CheckCompatibilityOutput{
				Compatible:  compatible,
				PSNumber:    strings.ToUpper(in.PSNumber),
				ModelNumber: strings.ToUpper(in.ModelNumber),
			}
			if part != nil {
				out.Appliance = part.Appliance
			}
			return out, nil
		},
	)
}

type GetCompatiblePartsInput struct {
	ModelNumber string `json:"model_number"`
	Brand       string `json:"brand,omitempty"`
}

type GetCompatiblePartsOutput struct {
	ModelNumber string       `json:"model_number"`
	Count       int          `json:"count"`
	Parts       []store.Part `json:"parts"`
}

func (r *Registry) getCompatiblePartsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_compatible_parts",
			Desc: "Get all parts compatible with a specific appliance model. Use when the customer provides their model number and wants to browse available parts.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"model_number": {
					Type:     "string",
					Desc:     "The appliance model number, e.g. 'WDT780SAEM1'.",
					Required: true,
				},
				"brand": {
					Type: "string",
					Desc: "Optional brand filter, e.g. 'Whirlpool'.",
				},
			}),
		},
		func(ctx context.Context, in *GetCompatiblePartsInput) (*GetCompatiblePartsOutput, error) {
			if in.ModelNumber == "" {
				return nil, fmt.Errorf("model_number is required")
			}
			parts, err := r.deps.Store.PartsForModel(ctx, in.ModelNumber, in.Brand)
			if err != nil {
				return nil, err
			}
			if parts == nil {
				parts = []store.Part{}
			}
			return &GetCompatiblePartsOutput{
				ModelNumber: strings.ToUpper(in.ModelNumber),
				Count:       len(parts),
				Parts:       parts,
			}, nil
		},
	)
}

type GetCompatibleModelsInput struct {
	PSNumber string `json:"ps_number"`
	Brand    string `json:"brand,omitempty"`
}

type GetCompatibleModelsOutput struct {
	PartNumber           string                 `json:"part_number"`
	CompatibleModelCount int                    `json:"compatible_model_count"`
	Models               []store.ApplianceModel `json:"models"`
	Message              string                 `json:"message,omitempty"`
}

func (r *Registry) getCompatibleModelsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "get_compatible_models",
			Desc: "Get all appliance models that a specific part fits. Use when the customer has a part number and wants to know which models it works with. This is the reverse of get_compatible_parts.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ps_number": {
					Type:     "string",
					Desc:     "The part's PS number, e.g. 'PS11752778'.",
					Required: true,
				},
				"brand": {
					Type: "string",
					Desc: "Optional brand filter, e.g. 'Whirlpool'.",
				},
			}),
		},
		func(ctx context.Context, in *GetCompatibleModelsInput) (*GetCompatibleModelsOutput, error) {
			if in.PSNumber == "" {
				return nil, fmt.Errorf("ps_number is required")
			}
			models, err := r.deps.Store.CompatibleModels(ctx, in.PSNumber)
			if err != nil {
				return nil, err
			}
			if in.Brand != "" {
				filtered := models[:0]
				for _, m := range models {
					if strings.EqualFold(m.Brand, in.Brand) {
						filtered = append(filtered, m)
					}
				}
				models = filtered
			}
			out := &GetCompatibleModelsOutput{
				PartNumber:           strings.ToUpper(in.PSNumber),
				CompatibleModelCount: len(models),
				Models:               models,
			}
			if len(models) == 0 {
				out.Message = fmt.Sprintf("No compatible models found for part %s", in.PSNumber)
				out.Models = []store.ApplianceModel{}
			}
			return out, nil
		},
	)
}
