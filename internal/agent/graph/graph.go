// Package graph wires the conversation pipeline into an Eino graph.
//
// Two topologies are supported. The react topology runs a single tool
// calling executor loop. The planner topology first decomposes the query
// and fans complex plans out to a concurrent worker pool.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"github.com/partdesk/server/internal/agent/graph/nodes"
	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/scope"
	"github.com/partdesk/server/internal/agent/tools"
	logx "github.com/partdesk/server/pkg/logger"
)

// Topology names accepted by the builder.
const (
	TopologyReact   = "react"
	TopologyPlanner = "planner"
)

// GraphConfig holds everything needed to build a runnable graph.
type GraphConfig struct {
	ChatModels   *nodes.ChatModels
	Registry     *tools.Registry
	Classifier   *scope.Classifier
	Conversation model.ConversationConfig
	Topology     string
}

// GraphBuilder handles the construction of the conversation graph.
type GraphBuilder struct {
	config *GraphConfig
	graph  *compose.Graph[model.TurnInput, *model.TurnDraft]
}

// BuildGraph constructs and compiles the graph for the configured topology.
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, *model.TurnDraft], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Executor == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Registry == nil {
		return nil, fmt.Errorf("tool registry is nil")
	}
	if config.Classifier == nil {
		return nil, fmt.Errorf("scope classifier is nil")
	}

	builder := &GraphBuilder{
		config: config,
		graph: compose.NewGraph[model.TurnInput, *model.TurnDraft](
			compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
				return &model.TurnState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}

	switch config.Topology {
	case TopologyPlanner:
		builder.addPlannerNodes()
		if err := builder.addPlannerBranches(); err != nil {
			return nil, err
		}
	case TopologyReact, "":
		builder.addReactNodes()
		if err := builder.addReactBranches(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown topology: %q", config.Topology)
	}

	return builder.compile(ctx)
}

// setupTools binds the tool roster to the executor model and installs the
// tool execution node.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	registry := b.config.Registry

	toolInfos, err := registry.ToolInfos(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	if err := b.config.ChatModels.BindToolsToExecutorModel(ctx, toolInfos); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to executor model")
		return err
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               registry.Tools(),
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			// Hallucinated or malformed tool calls degrade to a structured
			// error the model can recover from.
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: func(ctx context.Context, name, arguments string) (string, error) {
			return sanitizeArguments(arguments), nil
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.Conversation.Tools.MaxCalls)),
	)

	return nil
}

// sanitizeArguments trims string arguments and clamps limit before tool
// dispatch. Best effort: anything unparseable passes through unchanged.
func sanitizeArguments(arguments string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments
	}
	for k, v := range m {
		switch vv := v.(type) {
		case string:
			m[k] = strings.TrimSpace(vv)
		case float64:
			if k == "limit" {
				m[k] = clampInt(int(vv), 1, 10)
			}
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return arguments
	}
	return string(b)
}

// addSharedNodes installs the nodes common to both topologies: scope
// check, rejection, executor loop, collection and the secondary check.
func (b *GraphBuilder) addSharedNodes(executorSetup *compose.Lambda) {
	conv := b.config.Conversation

	b.graph.AddLambdaNode(nodes.NodeScopeCheck,
		nodes.NewScopeCheckNode(b.config.Classifier),
		compose.WithStatePreHandler(nodes.NewScopeCheckPreHandler()),
		compose.WithStatePostHandler(nodes.NewScopeCheckPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeScopeReject, nodes.NewScopeRejectNode())

	b.graph.AddLambdaNode(nodes.NodeExecutorSetup, executorSetup)

	b.graph.AddChatModelNode(nodes.NodeExecutorChatModel,
		nodes.NewExecutorChatModelNode(b.config.ChatModels.Executor),
		compose.WithStatePreHandler(nodes.NewExecutorChatModelPreHandler(conv.Tools.MaxCalls)),
		compose.WithStatePostHandler(nodes.NewExecutorChatModelPostHandler(b.config.ChatModels.ExecutorModelName)),
	)

	b.graph.AddLambdaNode(nodes.NodeCollector, nodes.NewCollectorNode(b.config.Registry))
	b.graph.AddLambdaNode(nodes.NodeSecondaryScope, nodes.NewSecondaryScopeNode())

	edges := [][2]string{
		{compose.START, nodes.NodeScopeCheck},
		{nodes.NodeScopeReject, compose.END},
		{nodes.NodeExecutorSetup, nodes.NodeExecutorChatModel},
		{nodes.NodeToolExecutor, nodes.NodeExecutorChatModel},
		{nodes.NodeCollector, nodes.NodeSecondaryScope},
		{nodes.NodeSecondaryScope, compose.END},
	}
	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

func (b *GraphBuilder) addReactNodes() {
	b.addSharedNodes(nodes.NewExecutorSetupFromScope(b.config.Registry, b.config.Conversation.Context.SynthesisTurns))
}

func (b *GraphBuilder) addReactBranches() error {
	scopeBranch := compose.NewGraphBranch(
		nodes.NewScopeCondition(nodes.NodeExecutorSetup),
		map[string]bool{
			nodes.NodeScopeReject:   true,
			nodes.NodeExecutorSetup: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeScopeCheck, scopeBranch); err != nil {
		return fmt.Errorf("error adding scope branch: %w", err)
	}

	return b.addExecutorLoopBranch()
}

func (b *GraphBuilder) addPlannerNodes() {
	conv := b.config.Conversation
	b.addSharedNodes(nodes.NewExecutorSetupFromPlan(b.config.Registry, conv.Context.SynthesisTurns))

	b.graph.AddLambdaNode(nodes.NodePlannerSetup,
		nodes.NewPlannerSetupNode(b.config.Registry, conv.Context.MaxTurns),
	)
	b.graph.AddChatModelNode(nodes.NodePlannerChatModel,
		nodes.NewPlannerChatModelNode(b.config.ChatModels.Planner),
		compose.WithStatePostHandler(nodes.NewPlannerChatModelPostHandler(b.config.ChatModels.PlannerModelName)),
	)
	b.graph.AddLambdaNode(nodes.NodePlanParser,
		nodes.NewPlanParserNode(b.config.Registry),
		compose.WithStatePostHandler(nodes.NewPlanParserPostHandler()),
	)
	b.graph.AddLambdaNode(nodes.NodePlanReject, nodes.NewPlanRejectNode())
	b.graph.AddLambdaNode(nodes.NodeWorkerPool, nodes.NewWorkerPoolNode(b.config.Registry))

	edges := [][2]string{
		{nodes.NodePlannerSetup, nodes.NodePlannerChatModel},
		{nodes.NodePlannerChatModel, nodes.NodePlanParser},
		{nodes.NodePlanReject, compose.END},
		{nodes.NodeWorkerPool, nodes.NodeSecondaryScope},
	}
	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

func (b *GraphBuilder) addPlannerBranches() error {
	scopeBranch := compose.NewGraphBranch(
		nodes.NewScopeCondition(nodes.NodePlannerSetup),
		map[string]bool{
			nodes.NodeScopeReject:  true,
			nodes.NodePlannerSetup: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeScopeCheck, scopeBranch); err != nil {
		return fmt.Errorf("error adding scope branch: %w", err)
	}

	planBranch := compose.NewGraphBranch(
		nodes.NewPlanCondition(),
		map[string]bool{
			nodes.NodeWorkerPool:    true,
			nodes.NodePlanReject:    true,
			nodes.NodeExecutorSetup: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodePlanParser, planBranch); err != nil {
		return fmt.Errorf("error adding plan branch: %w", err)
	}

	return b.addExecutorLoopBranch()
}

func (b *GraphBuilder) addExecutorLoopBranch() error {
	loopBranch := compose.NewGraphBranch(
		nodes.NewToolExecutorCondition(),
		map[string]bool{
			nodes.NodeToolExecutor: true,
			nodes.NodeCollector:    true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeExecutorChatModel, loopBranch); err != nil {
		return fmt.Errorf("error adding executor loop branch: %w", err)
	}
	return nil
}

// compile finalizes the graph with a step ceiling against runaway loops.
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, *model.TurnDraft], error) {
	maxSteps := 10 + b.config.Conversation.Tools.MaxCalls*2
	if maxSteps < 20 {
		maxSteps = 20
	}

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Str("topology", b.config.Topology).Msg("Graph compiled successfully")
	return runnable, nil
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
