package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/partdesk/server/internal/agent/graph"
	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/repo"
	"github.com/partdesk/server/internal/agent/resolve"
	"github.com/partdesk/server/internal/agent/tools"
	"github.com/partdesk/server/internal/core"
	"github.com/partdesk/server/internal/embed"
	"github.com/partdesk/server/internal/scrape"
	"github.com/partdesk/server/internal/store"
	logx "github.com/partdesk/server/pkg/logger"
	pkgpostgres "github.com/partdesk/server/pkg/postgres"
	pkgredis "github.com/partdesk/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Set to use the in-memory demo catalog and session store instead of
	// Postgres and Redis. Infrastructure config is only read when unset.
	DemoMode bool `envconfig:"DEMO_MODE" default:"true"`

	Environment string `envconfig:"APP_ENV" default:"development"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Scope        model.ScopeModelConfig
	Planner      model.PlannerModelConfig
	Executor     model.ExecutorModelConfig
	Synthesizer  model.SynthesizerModelConfig
	Conversation model.ConversationConfig
	Embedding    model.EmbeddingConfig
	Scrape       model.ScrapeConfig
	Pipeline     model.PipelineConfig
}

func main() {
	fmt.Println("Starting PartDesk agent demo...")
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}
	logx.Init(core.ParseEnvironment(envCfg.Environment))

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}

	// ====================================================
	// Storage: Postgres catalog + Redis sessions, or in-memory demo
	var catalog store.Store
	var sessions model.SessionRepository
	if envCfg.DemoMode {
		mem := store.NewMemoryStore()
		store.SeedDemo(mem)
		catalog = mem
		sessions = repo.NewMemorySessionRepository()
		fmt.Println("Using in-memory demo catalog and sessions")
	} else {
		var pgCfg pkgpostgres.Config
		if err := envconfig.Process("POSTGRES", &pgCfg); err != nil {
			log.Fatalf("Failed to process Postgres config: %v", err)
		}
		pool, err := pgCfg.New(ctx)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pool.Close()
		catalog = &store.PostgresStore{DB: pool}

		var redisCfg pkgredis.Config
		if err := envconfig.Process("REDIS", &redisCfg); err != nil {
			log.Fatalf("Failed to process Redis config: %v", err)
		}
		rdb, err := redisCfg.New()
		if err != nil {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		defer rdb.Close()
		sessions = repo.NewRedisSessionRepository(rdb, ttl)
		fmt.Println("Connected to Postgres and Redis successfully")
	}

	// ====================================================
	// Embeddings with an LRU cache in front
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  envCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	cacheTTL, err := time.ParseDuration(envCfg.Embedding.CacheTTL)
	if err != nil {
		log.Fatalf("Invalid EMBEDDING_CACHE_TTL '%s': %v", envCfg.Embedding.CacheTTL, err)
	}
	embedder := embed.NewCachedEmbedder(
		embed.NewGeminiEmbedder(genaiClient, envCfg.Embedding.Model, envCfg.Embedding.Dimensions),
		envCfg.Embedding.CacheSize,
		cacheTTL,
	)

	deps := tools.Deps{
		Store:    catalog,
		Resolver: resolve.NewResolver(catalog),
		Embedder: embedder,
	}
	if envCfg.Scrape.Enabled {
		scrapeTimeout, err := time.ParseDuration(envCfg.Scrape.Timeout)
		if err != nil {
			log.Fatalf("Invalid SCRAPE_TIMEOUT '%s': %v", envCfg.Scrape.Timeout, err)
		}
		deps.Fetcher = scrape.NewFetcher(envCfg.Scrape.BaseURL, scrapeTimeout)
	}

	// ====================================================
	// Build the pipeline entirely from env
	pipeline, err := graph.BuildPipeline(ctx, graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		ScopeModel:       envCfg.Scope,
		PlannerModel:     envCfg.Planner,
		ExecutorModel:    envCfg.Executor,
		SynthesizerModel: envCfg.Synthesizer,
		Conversation:     envCfg.Conversation,
		Pipeline:         envCfg.Pipeline,
		SessionRepo:      sessions,
		ToolDeps:         deps,
	})
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Part lookup by PS number",
			query:       "Tell me about PS11752778",
		},
		{
			description: "Compatibility follow-up using session context",
			query:       "Does it fit my WRS325SDHZ?",
		},
		{
			description: "Symptom troubleshooting",
			query:       "My dishwasher is leaking from the bottom",
		},
		{
			description: "Out-of-scope appliance",
			query:       "My washing machine won't spin",
		},
	}

	conversationID := "demo-conversation-1"

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)
		fmt.Println("Processing...")

		result, err := pipeline.Run(ctx, conversationID, test.query)
		if err != nil {
			log.Fatalf("Failed to run turn %d: %v", i+1, err)
		}

		fmt.Printf("Response %d: %s\n", i+1, result.Response)
		for _, card := range result.Parts {
			fmt.Printf("  [part card] %s %s $%.2f\n", card.PSNumber, card.Name, card.Price)
		}
		fmt.Println("------------------------------------------------")

		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All demo turns completed successfully!")
}
