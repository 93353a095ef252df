package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/store"
	logx "github.com/partdesk/server/pkg/logger"
)

// ===================================
// Live Scrape Tool
// ===================================

type ScrapePartLiveInput struct {
	PSNumber string `json:"ps_number"`
}

type ScrapePartLiveOutput struct {
	*store.Part
	ScrapedLive bool   `json:"scraped_live,omitempty"`
	Error       string `json:"error,omitempty"`
	OutOfScope  bool   `json:"out_of_scope,omitempty"`
}

func (r *Registry) scrapePartLiveTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: "scrape_part_live",
			Desc: "Live scrape a part page when the part is not in the catalog. WARNING: this is a SLOW operation (5-30 seconds). Only use after get_part or resolve_part reported the part as not found.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ps_number": {
					Type:     "string",
					Desc:     "The PS number to scrape, e.g. 'PS11752778'.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *ScrapePartLiveInput) (*ScrapePartLiveOutput, error) {
			ps := strings.ToUpper(strings.TrimSpace(in.PSNumber))
			if !strings.HasPrefix(ps, "PS") {
				return &ScrapePartLiveOutput{
					Part:  &store.Part{PSNumber: ps},
					Error: fmt.Sprintf("Invalid PS number format: %s. Must start with 'PS'", in.PSNumber),
				}, nil
			}

			part, err := r.deps.Fetcher.FetchPart(ctx, ps)
			if errors.Is(err, store.ErrNotFound) {
				return &ScrapePartLiveOutput{
					Part:  &store.Part{PSNumber: ps},
					Error: fmt.Sprintf("Part %s not found on the retail site", ps),
				}, nil
			}
			if err != nil {
				return &ScrapePartLiveOutput{
					Part:  &store.Part{PSNumber: ps},
					Error: fmt.Sprintf("Live scrape failed for %s: %v", ps, err),
				}, nil
			}

			// Scraped pages carry no appliance field; classify before the
			// data can enter the session.
			if r.deps.Classifier != nil {
				appliance, err := r.deps.Classifier.Classify(ctx, part)
				if err != nil {
					logx.Warn().Err(err).Str("ps_number", ps).Msg("appliance classification failed")
				} else {
					part.Appliance = appliance
				}
			}

			if part.Appliance != "" && !part.Appliance.Supported() {
				return &ScrapePartLiveOutput{
					Part:        &store.Part{PSNumber: part.PSNumber, Name: part.Name, Appliance: part.Appliance},
					ScrapedLive: true,
					Error:       fmt.Sprintf("Part %s is for a %s, not a refrigerator or dishwasher.", part.PSNumber, part.Appliance),
					OutOfScope:  true,
				}, nil
			}

			// Fold the scraped part into the catalog so the next lookup hits.
			if err := r.deps.Store.InsertPart(ctx, part); err != nil {
				logx.Warn().Err(err).Str("ps_number", ps).Msg("failed to persist scraped part")
			}

			return &ScrapePartLiveOutput{Part: part, ScrapedLive: true}, nil
		},
	)
}
