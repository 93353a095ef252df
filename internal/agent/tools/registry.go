package tools

import (
	"context"
	"fmt"
	"strings"

	chatmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/resolve"
	"github.com/partdesk/server/internal/embed"
	"github.com/partdesk/server/internal/scrape"
	"github.com/partdesk/server/internal/store"
)

// Categories used for grouping tools in generated documentation.
const (
	CategoryResolution = "resolution"
	CategoryPart       = "part"
	CategorySymptom    = "symptom"
	CategorySearch     = "search"
	CategoryVector     = "vector"
	CategoryScrape     = "scrape"
)

var categoryOrder = []string{
	CategoryResolution, CategoryPart, CategorySymptom,
	CategorySearch, CategoryVector, CategoryScrape,
}

var categoryHeaders = map[string]string{
	CategoryResolution: "### Resolution Tools\nUse these first to convert user input into identifiers.",
	CategoryPart:       "### Part Tools\nRequire a PS number. Use after resolution.",
	CategorySymptom:    "### Symptom/Repair Tools\nFor troubleshooting workflows. Don't require PS number.",
	CategorySearch:     "### Search Tools\nFor browsing/filtering parts.",
	CategoryVector:     "### Q&A, Stories and Reviews\nSemantic search for part-specific content. Require PS number.",
	CategoryScrape:     "### Live Scrape\nSlow fallback when a part is missing from the catalog.",
}

// Deps are the services the tool layer draws on. Optional fields may be
// nil; tools depending on them degrade to empty results or an error
// payload instead of failing the whole turn.
type Deps struct {
	Store    store.Store
	Resolver *resolve.Resolver

	// Embedder powers the semantic tools. Nil disables ranking; vector
	// tools then fall back to unranked per-part listings.
	Embedder embed.Embedder

	// Fetcher and Classifier power scrape_part_live. Nil disables it.
	Fetcher    *scrape.Fetcher
	Classifier *scrape.Classifier

	// SymptomMatcher, when set, picks the best-matching symptom name for
	// a free-form description in get_symptoms.
	SymptomMatcher chatmodel.BaseChatModel
}

type registeredTool struct {
	name     string
	category string
	summary  string
	tool     tool.BaseTool
}

// Registry owns the tool set exposed to the executor and workers.
type Registry struct {
	deps  Deps
	tools []registeredTool
}

// NewRegistry builds the full tool roster over the given dependencies.
func NewRegistry(deps Deps) *Registry {
	r := &Registry{deps: deps}

	r.add(CategoryResolution, "Parse any part reference (PS number, manufacturer number, URL, 'this part', free text) into catalog identifiers.", r.resolvePartTool())
	r.add(CategoryResolution, "Parse a model number reference with fuzzy matching.", r.resolveModelTool())

	r.add(CategoryPart, "Get full details for a part by its PS number.", r.getPartTool())
	r.add(CategoryPart, "Check if a specific part is compatible with an appliance model.", r.checkCompatibilityTool())
	r.add(CategoryPart, "List all parts compatible with a specific appliance model.", r.getCompatiblePartsTool())
	r.add(CategoryPart, "List all appliance models a specific part fits.", r.getCompatibleModelsTool())

	r.add(CategorySymptom, "Get symptom info for an appliance, optionally matched to a described problem.", r.getSymptomsTool())
	r.add(CategorySymptom, "Get step-by-step troubleshooting instructions for a symptom.", r.getRepairInstructionsTool())

	r.add(CategorySearch, "Search for parts by text query and filters.", r.searchPartsTool())
	r.add(CategorySearch, "Search for parts using natural language (semantic search).", r.searchPartsSemanticTool())

	r.add(CategoryVector, "Search Q&A content for a specific part by semantic similarity.", r.searchQnATool())
	r.add(CategoryVector, "Search customer repair stories for a specific part by semantic similarity.", r.searchRepairStoriesTool())
	r.add(CategoryVector, "Search customer reviews for a specific part by semantic similarity.", r.searchReviewsTool())

	if deps.Fetcher != nil {
		r.add(CategoryScrape, "Live scrape a part page when the catalog has no record. Slow.", r.scrapePartLiveTool())
	}

	return r
}

func (r *Registry) add(category, summary string, t tool.BaseTool) {
	info, err := t.Info(context.Background())
	name := "unknown"
	if err == nil {
		name = info.Name
	}
	r.tools = append(r.tools, registeredTool{name: name, category: category, summary: summary, tool: t})
}

// Tools returns the roster for a ToolsNode.
func (r *Registry) Tools() []tool.BaseTool {
	out := make([]tool.BaseTool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.tool)
	}
	return out
}

// ToolInfos collects the schema of every tool, for binding to a chat model.
func (r *Registry) ToolInfos(ctx context.Context) ([]*schema.ToolInfo, error) {
	out := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		info, err := t.tool.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info for %s: %w", t.name, err)
		}
		out = append(out, info)
	}
	return out, nil
}

// Names lists registered tool names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.name)
	}
	return out
}

// Has reports whether a tool name is registered.
func (r *Registry) Has(name string) bool {
	for _, t := range r.tools {
		if t.name == name {
			return true
		}
	}
	return false
}

// Invoke runs a registered tool by name with raw JSON arguments and
// returns its raw JSON result. Used by the worker fan-out and the live
// scrape fallback, which call tools outside a ToolsNode.
func (r *Registry) Invoke(ctx context.Context, name, argumentsJSON string) (string, error) {
	for _, t := range r.tools {
		if t.name != name {
			continue
		}
		inv, ok := t.tool.(tool.InvokableTool)
		if !ok {
			return "", fmt.Errorf("tool %s is not invokable", name)
		}
		return inv.InvokableRun(ctx, argumentsJSON)
	}
	return "", fmt.Errorf("unknown tool: %s", name)
}

// Docs renders grouped tool documentation for prompt templates.
func (r *Registry) Docs() string {
	var lines []string
	for _, category := range categoryOrder {
		var inCat []registeredTool
		for _, t := range r.tools {
			if t.category == category {
				inCat = append(inCat, t)
			}
		}
		if len(inCat) == 0 {
			continue
		}
		lines = append(lines, categoryHeaders[category])
		for _, t := range inCat {
			lines = append(lines, fmt.Sprintf("- `%s`: %s", t.name, t.summary))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}
