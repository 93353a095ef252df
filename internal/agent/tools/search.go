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
// Search Tools
// ===================================

const (
	defaultSearchLimit   = 10
	semanticThreshold    = 0.4
	semanticSearchFactor = 3 // overfetch before appliance filtering
)

type SearchPartsInput struct {
	Query         string  `json:"query"`
	ApplianceType string  `json:"appliance_type,omitempty"`
	Brand         string  `json:"brand,omitempty"`
	MaxPrice      float64 `json:"max_price,omitempty"`
	InStockOnly   bool    `json:"in_stock_only,omitempty"`
}

type SearchPartsOutput struct {
	Query string       `json:"query"`
	Count int          `json:"count"`
	Parts []store.Part `json:"parts"`
}

func (r *Registry) searchPartsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "search_parts",
			Desc: "Search for parts by text query and filters. Use this to browse or filter parts. For resolving user input (PS numbers, URLs, manufacturer numbers, 'this part'), use resolve_part instead.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Text to search in part names and descriptions, e.g. 'ice maker', 'water filter'.",
					Required: true,
				},
				"appliance_type": {
					Type: "string",
					Desc: "Optional filter: 'refrigerator' or 'dishwasher'.",
				},
				"brand": {
					Type: "string",
					Desc: "Optional brand filter, e.g. 'Whirlpool'.",
				},
				"max_price": {
					Type: "number",
					Desc: "Optional maximum price.",
				},
				"in_stock_only": {
					Type: "boolean",
					Desc: "Only return in-stock parts.",
				},
			}),
		},
		func(ctx context.Context, in *SearchPartsInput) (*SearchPartsOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			appliance := model.ApplianceType("")
			if in.ApplianceType != "" {
				appliance = model.ParseAppliance(in.ApplianceType)
			}
			parts, err := r.deps.Store.SearchParts(ctx, in.Query, appliance, defaultSearchLimit*semanticSearchFactor)
			if err != nil {
				return nil, err
			}

			filtered := make([]store.Part, 0, len(parts))
			for _, p := range parts {
				if in.Brand != "" && !strings.EqualFold(p.Brand, in.Brand) {
					continue
				}
				if in.MaxPrice > 0 && p.Price > in.MaxPrice {
					continue
				}
				if in.InStockOnly && !p.InStock {
					continue
				}
				filtered = append(filtered, p)
				if len(filtered) >= defaultSearchLimit {
					break
				}
			}
			return &SearchPartsOutput{Query: in.Query, Count: len(filtered), Parts: filtered}, nil
		},
	)
}

type SearchPartsSemanticInput struct {
	Query         string `json:"query"`
	ApplianceType string `json:"appliance_type,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

type SearchPartsSemanticOutput struct {
	Query string             `json:"query"`
	Count int                `json:"count"`
	Parts []store.ScoredPart `json:"parts"`
}

func (r *Registry) searchPartsSemanticTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "search_parts_semantic",
			Desc: "Search for parts using natural language where the exact terminology might not match catalog categories, e.g. 'door seal' finding gasket parts. More forgiving than search_parts; use search_parts when you have exact filters.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Natural language description, e.g. 'refrigerator bins', 'door seal'.",
					Required: true,
				},
				"appliance_type": {
					Type: "string",
					Desc: "Optional filter: 'refrigerator' or 'dishwasher'.",
				},
				"limit": {
					Type: "number",
					Desc: "Maximum number of results (default 10).",
				},
			}),
		},
		func(ctx context.Context, in *SearchPartsSemanticInput) (*SearchPartsSemanticOutput, error) {
			out := &SearchPartsSemanticOutput{Query: in.Query, Parts: []store.ScoredPart{}}
			if strings.TrimSpace(in.Query) == "" {
				return out, nil
			}
			if r.deps.Embedder == nil {
				return out, nil
			}
			limit := in.Limit
			if limit <= 0 {
				limit = defaultSearchLimit
			}

			vec, err := r.deps.Embedder.Embed(ctx, in.Query)
			if err != nil {
				logx.Warn().Err(err).Msg("failed to embed semantic search query")
				return out, nil
			}

			scored, err := r.deps.Store.SearchPartsSemantic(ctx, vec, semanticThreshold, limit*semanticSearchFactor)
			if err != nil {
				return nil, err
			}
			appliance := model.ParseAppliance(in.ApplianceType)
			for _, sp := range scored {
				if in.ApplianceType != "" && sp.Appliance != appliance {
					continue
				}
				out.Parts = append(out.Parts, sp)
				if len(out.Parts) >= limit {
					break
				}
			}
			out.Count = len(out.Parts)
			return out, nil
		},
	)
}
