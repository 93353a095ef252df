package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/partdesk/server/internal/agent/model"
	logx "github.com/partdesk/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string

	ScopeConfig       *model.ScopeModelConfig
	PlannerConfig     *model.PlannerModelConfig
	ExecutorConfig    *model.ExecutorModelConfig
	SynthesizerConfig *model.SynthesizerModelConfig
}

// ChatModels holds the chat models backing each pipeline stage.
type ChatModels struct {
	Scope       *gemini.ChatModel
	Planner     *gemini.ChatModel
	Executor    *gemini.ChatModel
	Synthesizer *gemini.ChatModel

	ScopeModelName       string
	PlannerModelName     string
	ExecutorModelName    string
	SynthesizerModelName string
}

// NewChatModels creates all stage models over a shared Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	scopeModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ScopeConfig.Model,
		Temperature: &config.ScopeConfig.Temperature,
		MaxTokens:   &config.ScopeConfig.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating scope model: %w", err)
	}

	plannerModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.PlannerConfig.Model,
		Temperature: &config.PlannerConfig.Temperature,
		MaxTokens:   &config.PlannerConfig.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}

	executorModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.ExecutorConfig.Model,
		Temperature: &config.ExecutorConfig.Temperature,
		MaxTokens:   &config.ExecutorConfig.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(int32(2000)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating executor model: %w", err)
	}

	synthModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.SynthesizerConfig.Model,
		Temperature: &config.SynthesizerConfig.Temperature,
		MaxTokens:   &config.SynthesizerConfig.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating synthesizer model: %w", err)
	}

	return &ChatModels{
		Scope:                scopeModel,
		Planner:              plannerModel,
		Executor:             executorModel,
		Synthesizer:          synthModel,
		ScopeModelName:       config.ScopeConfig.Model,
		PlannerModelName:     config.PlannerConfig.Model,
		ExecutorModelName:    config.ExecutorConfig.Model,
		SynthesizerModelName: config.SynthesizerConfig.Model,
	}, nil
}

// BindToolsToExecutorModel binds the tool roster to the executor model.
func (cm *ChatModels) BindToolsToExecutorModel(ctx context.Context, tools []*schema.ToolInfo) error {
	if err := cm.Executor.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}
	logx.Debug().Msg("Successfully bound tools to executor model")
	return nil
}

// NewExecutorChatModelNode wraps the executor model for use as a graph node.
func NewExecutorChatModelNode(chatModel *gemini.ChatModel) *gemini.ChatModel {
	return chatModel
}

// NewPlannerChatModelNode wraps the planner model for use as a graph node.
func NewPlannerChatModelNode(chatModel *gemini.ChatModel) *gemini.ChatModel {
	return chatModel
}
