package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/resolve"
)

// ===================================
// Resolution Tools
// ===================================

type ResolvePartInput struct {
	Input string `json:"input"`
}

func (r *Registry) resolvePartTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "resolve_part",
			Desc: "Parse any part reference and return structured identifiers. Handles PS numbers (PS11752778), manufacturer numbers (WPW10321304), PartSelect URLs, session references like 'this part', and free text like 'ice maker'. Always use this first when the customer refers to a part.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"input": {
					Type:     "string",
					Desc:     "The customer's part reference: PS number, manufacturer number, URL, 'this part', or descriptive text.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ResolvePartInput) (*resolve.PartResolution, error) {
			if in.Input == "" {
				return nil, fmt.Errorf("input is required")
			}
			return r.deps.Resolver.ResolvePart(ctx, in.Input, SessionFrom(ctx))
		},
	)
}

type ResolveModelInput struct {
	Input string `json:"input"`
}

func (r *Registry) resolveModelTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "resolve_model",
			Desc: "Parse a model number reference with fuzzy matching. Tries an exact match first, then partial matches. Use when the customer mentions their appliance model, even a fragment like 'WDT780'.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"input": {
					Type:     "string",
					Desc:     "The customer's model reference, e.g. 'WDT780SAEM1' or 'WDT780'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ResolveModelInput) (*resolve.ModelResolution, error) {
			if in.Input == "" {
				return nil, fmt.Errorf("input is required")
			}
			return r.deps.Resolver.ResolveModel(ctx, in.Input)
		},
	)
}
