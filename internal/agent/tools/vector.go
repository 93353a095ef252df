package tools

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/store"
	logx "github.com/partdesk/server/pkg/logger"
)

// ===================================
// Q&A, Stories and Reviews Tools
// ===================================

const (
	vectorLimit     = 5
	vectorThreshold = 0.2
)

type VectorSearchInput struct {
	Query    string `json:"query"`
	PSNumber string `json:"ps_number"`
	Limit    int    `json:"limit,omitempty"`
}

func (in *VectorSearchInput) limit() int {
	if in.Limit <= 0 {
		return vectorLimit
	}
	return in.Limit
}

// embedQuery returns the query embedding, or nil when the query is empty
// or no embedder is configured. Nil tells the caller to list unranked.
func (r *Registry) embedQuery(ctx context.Context, query string) []float32 {
	if strings.TrimSpace(query) == "" || r.deps.Embedder == nil {
		return nil
	}
	vec, err := r.deps.Embedder.Embed(ctx, query)
	if err != nil {
		logx.Warn().Err(err).Msg("failed to embed vector search query")
		return nil
	}
	return vec
}

func vectorParams(queryDesc string) map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"query": {
			Type:     "string",
			Desc:     queryDesc,
			Required: true,
		},
		"ps_number": {
			Type:     "string",
			Desc:     "REQUIRED: the part's PS number. Without it the search returns nothing.",
			Required: true,
		},
		"limit": {
			Type: "number",
			Desc: "Maximum number of results (default 5).",
		},
	}
}

type SearchQnAOutput struct {
	PSNumber string      `json:"ps_number"`
	Count    int         `json:"count"`
	Results  []store.QnA `json:"results"`
}

func (r *Registry) searchQnATool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        "search_qna",
			Desc:        "Search Q&A content for a specific part by semantic similarity. ps_number is REQUIRED. Use for installation difficulty, tips and gotchas, part quality, and compatibility details. An empty query lists all Q&A for the part.",
			ParamsOneOf: schema.NewParamsOneOfByParams(vectorParams("Natural language query, e.g. 'is this part easy to install'. May be empty to list everything.")),
		},
		func(ctx context.Context, in *VectorSearchInput) (*SearchQnAOutput, error) {
			out := &SearchQnAOutput{PSNumber: in.PSNumber, Results: []store.QnA{}}
			if in.PSNumber == "" {
				return out, nil
			}
			var (
				results []store.QnA
				err     error
			)
			if vec := r.embedQuery(ctx, in.Query); vec != nil {
				results, err = r.deps.Store.SearchQnA(ctx, in.PSNumber, vec, vectorThreshold, in.limit())
			} else {
				results, err = r.deps.Store.QnAByPart(ctx, in.PSNumber, in.limit())
			}
			if err != nil {
				return nil, err
			}
			if results != nil {
				out.Results = results
			}
			out.Count = len(out.Results)
			return out, nil
		},
	)
}

type SearchRepairStoriesOutput struct {
	PSNumber string              `json:"ps_number"`
	Count    int                 `json:"count"`
	Results  []store.RepairStory `json:"results"`
}

func (r *Registry) searchRepairStoriesTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        "search_repair_stories",
			Desc:        "Search customer repair stories for a specific part by semantic similarity. ps_number is REQUIRED. Use for real-world troubleshooting experiences, installation difficulty insights, and repair tips. An empty query lists all stories for the part.",
			ParamsOneOf: schema.NewParamsOneOfByParams(vectorParams("Natural language query, e.g. 'my ice maker makes clicking noises'. May be empty to list everything.")),
		},
		func(ctx context.Context, in *VectorSearchInput) (*SearchRepairStoriesOutput, error) {
			out := &SearchRepairStoriesOutput{PSNumber: in.PSNumber, Results: []store.RepairStory{}}
			if in.PSNumber == "" {
				return out, nil
			}
			var (
				results []store.RepairStory
				err     error
			)
			if vec := r.embedQuery(ctx, in.Query); vec != nil {
				results, err = r.deps.Store.SearchRepairStories(ctx, in.PSNumber, vec, vectorThreshold, in.limit())
			} else {
				results, err = r.deps.Store.RepairStoriesByPart(ctx, in.PSNumber, in.limit())
			}
			if err != nil {
				return nil, err
			}
			if results != nil {
				out.Results = results
			}
			out.Count = len(out.Results)
			return out, nil
		},
	)
}

type SearchReviewsOutput struct {
	PSNumber string         `json:"ps_number"`
	Count    int            `json:"count"`
	Results  []store.Review `json:"results"`
}

func (r *Registry) searchReviewsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name:        "search_reviews",
			Desc:        "Search customer reviews for a specific part by semantic similarity. ps_number is REQUIRED. Use when the customer asks 'is this part any good', about quality, durability, value for money, or common complaints. An empty query lists all reviews for the part.",
			ParamsOneOf: schema.NewParamsOneOfByParams(vectorParams("Natural language query, e.g. 'any quality issues'. May be empty to list everything.")),
		},
		func(ctx context.Context, in *VectorSearchInput) (*SearchReviewsOutput, error) {
			out := &SearchReviewsOutput{PSNumber: in.PSNumber, Results: []store.Review{}}
			if in.PSNumber == "" {
				return out, nil
			}
			var (
				results []store.Review
				err     error
			)
			if vec := r.embedQuery(ctx, in.Query); vec != nil {
				results, err = r.deps.Store.SearchReviews(ctx, in.PSNumber, vec, vectorThreshold, in.limit())
			} else {
				results, err = r.deps.Store.ReviewsByPart(ctx, in.PSNumber, in.limit())
			}
			if err != nil {
				return nil, err
			}
			if results != nil {
				out.Results = results
			}
			out.Count = len(out.Results)
			return out, nil
		},
	)
}
