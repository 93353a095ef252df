package model

// ================ Config ================
type ConversationConfig struct {
	TTL     string `envconfig:"CONVERSATION_TTL" default:"30m"`
	Context struct {
		MaxTurns       int `envconfig:"CONVERSATION_CONTEXT_MAX_TURNS" default:"4"`
		SynthesisTurns int `envconfig:"CONVERSATION_SYNTHESIS_TURNS" default:"6"`
	}
	Tools struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"8"`
	}
}

type ScopeModelConfig struct {
	Model       string  `envconfig:"SCOPE_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"SCOPE_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"SCOPE_TEMPERATURE" default:"0"`
}

type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0"`
}

type ExecutorModelConfig struct {
	Model       string  `envconfig:"EXECUTOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"EXECUTOR_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"EXECUTOR_TEMPERATURE" default:"0"`
}

type SynthesizerModelConfig struct {
	Model       string  `envconfig:"SYNTHESIZER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"SYNTHESIZER_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"SYNTHESIZER_TEMPERATURE" default:"0.3"`
}

type EmbeddingConfig struct {
	Model      string `envconfig:"EMBEDDING_MODEL" default:"gemini-embedding-001"`
	Dimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"768"`
	CacheSize  int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"512"`
	CacheTTL   string `envconfig:"EMBEDDING_CACHE_TTL" default:"1h"`
}

type ScrapeConfig struct {
	Enabled bool   `envconfig:"SCRAPE_ENABLED" default:"false"`
	BaseURL string `envconfig:"SCRAPE_BASE_URL" default:"https://www.partselect.com"`
	Timeout string `envconfig:"SCRAPE_TIMEOUT" default:"30s"`
}

// PipelineConfig selects which orchestration topology serves a turn.
// "react" runs the single-executor loop; "planner" runs the
// planner/worker fan-out.
type PipelineConfig struct {
	Topology string `envconfig:"PIPELINE_TOPOLOGY" default:"react"`
}
