package types

import "time"

// StorageType selects the research/profile repository backend.
// Per prd001-research-lifecycle R6.1.
type StorageType string

const (
	StorageMemory StorageType = "memory"
	StorageSQLite StorageType = "sqlite"
)

// StorageConfig holds settings for research and profile persistence.
// Per prd001-research-lifecycle R6.
type StorageConfig struct {
	// Type selects the backend: memory or sqlite.
	Type StorageType `json:"type" yaml:"type"`

	// Dir is the engine workspace directory (default ".equity-engine").
	// The sqlite backend stores its database file here.
	Dir string `json:"dir" yaml:"dir"`
}

// CacheBackendType selects where cache entries live.
// Per prd002-caching R5.1.
type CacheBackendType string

const (
	CacheMemory CacheBackendType = "memory"
	CacheFile   CacheBackendType = "file"
)

// CacheConfig holds settings for the provider call cache.
// Per prd002-caching R4-R5.
type CacheConfig struct {
	// Backend selects the entry store: memory or file.
	Backend CacheBackendType `json:"backend" yaml:"backend"`

	// Dir is the cache directory for the file backend
	// (default "<storage dir>/cache").
	Dir string `json:"dir" yaml:"dir"`

	// DefaultTTL applies to operations without a specific TTL (default 1h).
	DefaultTTL time.Duration `json:"default_ttl" yaml:"default_ttl"`

	// QuoteTTL bounds quote staleness (default 15m).
	QuoteTTL time.Duration `json:"quote_ttl" yaml:"quote_ttl"`

	// HistoryTTL bounds price history staleness (default 6h).
	HistoryTTL time.Duration `json:"history_ttl" yaml:"history_ttl"`

	// FundamentalsTTL bounds financial report staleness (default 24h).
	FundamentalsTTL time.Duration `json:"fundamentals_ttl" yaml:"fundamentals_ttl"`
}

// TTLFor resolves the TTL for a cache operation id, falling back to
// DefaultTTL and then one hour. Per prd002-caching R4.2.
func (c CacheConfig) TTLFor(operation string) time.Duration {
	var ttl time.Duration
	switch operation {
	case "market.quote":
		ttl = c.QuoteTTL
	case "market.history":
		ttl = c.HistoryTTL
	case "fundamentals.report":
		ttl = c.FundamentalsTTL
	}
	if ttl <= 0 {
		ttl = c.DefaultTTL
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return ttl
}

// ProviderConfig holds settings for market data sources.
// Per prd003-data-providers R2.
type ProviderConfig struct {
	// SnapshotDir is the directory of per-symbol YAML snapshot fixtures
	// (default "<storage dir>/snapshots").
	SnapshotDir string `json:"snapshot_dir" yaml:"snapshot_dir"`
}

// LLMConfig holds settings for the language model provider.
// Per prd003-data-providers R5-R6.
type LLMConfig struct {
	// Provider names the registered LLM provider (default "openai").
	Provider string `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o-mini", "llama3.1").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the provider API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Set it to a local
	// OpenAI-compatible server (e.g. "http://localhost:11434/v1") to use
	// Ollama. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature (default 0.7).
	Temperature float32 `json:"temperature" yaml:"temperature"`

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// MaxRetries is the number of retry attempts for transient API
	// failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// WorkflowConfig holds execution policy for workflows.
// Per prd004-workflow-execution R3, R5.
type WorkflowConfig struct {
	// RequiredStages lists static stages whose failure aborts the run
	// (default ["quote"]). Stages not listed record failures and continue.
	RequiredStages []string `json:"required_stages" yaml:"required_stages"`

	// MaxIterations caps agentic planning rounds (default 5).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is the minimum slog level: debug, info, warn, or error
	// (default "info").
	Level string `json:"level" yaml:"level"`
}

// EngineConfig groups all engine settings.
type EngineConfig struct {
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	Provider ProviderConfig `json:"provider" yaml:"provider"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Workflow WorkflowConfig `json:"workflow" yaml:"workflow"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}
