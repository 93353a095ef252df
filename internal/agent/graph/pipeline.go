package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	chatmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/graph/nodes"
	"github.com/partdesk/server/internal/agent/graph/observers"
	"github.com/partdesk/server/internal/agent/graph/prompts"
	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/scope"
	sessionx "github.com/partdesk/server/internal/agent/session"
	"github.com/partdesk/server/internal/agent/tools"
	"github.com/partdesk/server/internal/scrape"
	logx "github.com/partdesk/server/pkg/logger"
)

// Config holds everything needed to compose the full pipeline end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// chat models, scope classifier and tool registry.
type Config struct {
	APIKey  string
	BaseURL string

	ScopeModel       model.ScopeModelConfig
	PlannerModel     model.PlannerModelConfig
	ExecutorModel    model.ExecutorModelConfig
	SynthesizerModel model.SynthesizerModelConfig

	Conversation model.ConversationConfig
	Pipeline     model.PipelineConfig

	SessionRepo model.SessionRepository
	ToolDeps    tools.Deps
}

// StreamChunk is one unit of a streamed response. Result is populated
// only on the final chunk, after all tool execution and session updates
// have completed.
type StreamChunk struct {
	Delta  string
	Done   bool
	Result *model.TurnResult
	Err    error
}

// defaultToolDeps fills optional tool services from the cheap scope-tier
// chat model: free-text symptom matching, and appliance classification of
// scraped parts whenever live scraping is enabled.
func defaultToolDeps(deps tools.Deps, chat chatmodel.BaseChatModel) tools.Deps {
	if deps.SymptomMatcher == nil {
		deps.SymptomMatcher = chat
	}
	if deps.Fetcher != nil && deps.Classifier == nil {
		deps.Classifier = scrape.NewClassifier(chat)
	}
	return deps
}

// Pipeline executes conversation turns: the compiled graph gathers tool
// results, then response synthesis and part card filtering run on top.
type Pipeline struct {
	runnable       compose.Runnable[model.TurnInput, *model.TurnDraft]
	repo           model.SessionRepository
	synthesizer    *gemini.ChatModel
	synthModelName string
	conv           model.ConversationConfig
}

// BuildPipeline composes chat models, tools, classifier and graph into a
// ready-to-serve pipeline.
func BuildPipeline(ctx context.Context, cfg Config) (*Pipeline, error) {
	if cfg.SessionRepo == nil {
		return nil, fmt.Errorf("session repo is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:            cfg.APIKey,
		BaseURL:           cfg.BaseURL,
		ScopeConfig:       &cfg.ScopeModel,
		PlannerConfig:     &cfg.PlannerModel,
		ExecutorConfig:    &cfg.ExecutorModel,
		SynthesizerConfig: &cfg.SynthesizerModel,
	})
	if err != nil {
		return nil, err
	}

	registry := tools.NewRegistry(defaultToolDeps(cfg.ToolDeps, cms.Scope))

	classifier := scope.NewClassifier(cms.Scope, cfg.Conversation.Context.MaxTurns)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModels:   cms,
		Registry:     registry,
		Classifier:   classifier,
		Conversation: cfg.Conversation,
		Topology:     cfg.Pipeline.Topology,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("topology", cfg.Pipeline.Topology).Msg("Pipeline built successfully")
	return &Pipeline{
		runnable:       runnable,
		repo:           cfg.SessionRepo,
		synthesizer:    cms.Synthesizer,
		synthModelName: cms.SynthesizerModelName,
		conv:           cfg.Conversation,
	}, nil
}

// Run serves one turn and blocks until the full response is ready.
func (p *Pipeline) Run(ctx context.Context, conversationID, query string) (*model.TurnResult, error) {
	draft, err := p.gather(ctx, conversationID, query)
	if err != nil {
		return nil, err
	}

	if draft.Rejected {
		return p.finalize(ctx, draft, draft.Response)
	}

	msgs, err := p.synthesisMessages(ctx, draft)
	if err != nil {
		return nil, err
	}
	out, err := p.synthesizer.Generate(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}
	return p.finalize(ctx, draft, out.Content)
}

// Stream serves one turn, emitting response deltas as they arrive. Tool
// execution and session mutation complete before the first delta; the
// final chunk carries the full TurnResult.
func (p *Pipeline) Stream(ctx context.Context, conversationID, query string) (<-chan StreamChunk, error) {
	draft, err := p.gather(ctx, conversationID, query)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk)

	if draft.Rejected {
		go func() {
			defer close(ch)
			result, err := p.finalize(ctx, draft, draft.Response)
			if err != nil {
				ch <- StreamChunk{Err: err, Done: true}
				return
			}
			ch <- StreamChunk{Delta: draft.Response}
			ch <- StreamChunk{Done: true, Result: result}
		}()
		return ch, nil
	}

	msgs, err := p.synthesisMessages(ctx, draft)
	if err != nil {
		return nil, err
	}
	reader, err := p.synthesizer.Stream(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("synthesis stream failed: %w", err)
	}

	go func() {
		defer close(ch)
		defer reader.Close()

		var full strings.Builder
		for {
			chunk, err := reader.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				ch <- StreamChunk{Err: fmt.Errorf("synthesis stream: %w", err), Done: true}
				// Persist whatever was produced so the session stays
				// consistent with what the customer saw.
				if full.Len() > 0 {
					if _, ferr := p.finalize(ctx, draft, full.String()); ferr != nil {
						logx.Error().Err(ferr).Msg("Failed to persist partial response")
					}
				}
				return
			}
			if chunk == nil || chunk.Content == "" {
				continue
			}
			full.WriteString(chunk.Content)
			ch <- StreamChunk{Delta: chunk.Content}
		}

		result, err := p.finalize(ctx, draft, full.String())
		if err != nil {
			ch <- StreamChunk{Err: err, Done: true}
			return
		}
		ch <- StreamChunk{Done: true, Result: result}
	}()

	return ch, nil
}

// gather runs the graph: scope check, tool execution and session updates.
func (p *Pipeline) gather(ctx context.Context, conversationID, query string) (*model.TurnDraft, error) {
	session, err := p.repo.Load(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	// Tools resolve "this part" references against the live session.
	ctx = tools.WithSession(ctx, session)

	draft, err := p.runnable.Invoke(ctx, model.TurnInput{
		ConversationID: conversationID,
		Query:          query,
		Session:        session,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("graph returned nil draft")
	}
	return draft, nil
}

func (p *Pipeline) synthesisMessages(ctx context.Context, draft *model.TurnDraft) ([]*schema.Message, error) {
	rendered, err := prompts.RenderSynthesizer(ctx,
		draft.Query,
		prompts.SynthesisSessionContext(draft.Session, p.conv.Context.SynthesisTurns),
		prompts.FormatResults(draft.Observations, draft.AgentAnalysis),
		draft.SynthesisHint,
	)
	if err != nil {
		return nil, fmt.Errorf("render synthesizer prompt: %w", err)
	}
	return []*schema.Message{schema.UserMessage(rendered)}, nil
}

// finalize applies the PS mention filter, appends the turn to history and
// persists the session.
func (p *Pipeline) finalize(ctx context.Context, draft *model.TurnDraft, response string) (*model.TurnResult, error) {
	session := draft.Session

	var parts []model.PartCard
	if !draft.Rejected {
		// Part cards ship only for PS numbers the response actually
		// cites; the session keeps the same view.
		mentioned := sessionx.MentionedParts(response)
		parts = sessionx.FilterCards(sessionx.CollectParts(draft.Observations), mentioned)
		session.FilterToMentioned(mentioned)
	}

	session.AddTurn(model.RoleUser, draft.Query)
	session.AddTurn(model.RoleAssistant, response)

	if err := p.repo.Save(ctx, draft.ConversationID, session); err != nil {
		logx.Error().
			Str("conversation_id", draft.ConversationID).
			Err(err).
			Msg("Error saving session")
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &model.TurnResult{
		Response: response,
		Session:  session,
		Parts:    parts,
	}, nil
}
