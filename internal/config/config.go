package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/avoskr/issueqa-backend/internal/entity"
	pkgRetry "github.com/avoskr/issueqa-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR" envDefault:":8080"`

	// Directory with the persisted vector index and document store,
	// produced offline by the ingestion pipeline
	ArtifactsDir string `env:"ARTIFACTS_DIR" envDefault:"embeddings"`

	// External service configurations
	EmbeddingCfg EmbeddingConnectorConfig `envPrefix:"EMBEDDING_"`
	LLMCfg       LLMConnectorConfig       `envPrefix:"LLM_"`

	// Retrieval parameters
	RetrievalCfg RetrievalConfig `envPrefix:"RETRIEVAL_"`

	// Ingestion pipeline configuration (used by issueqa-ingest only)
	GitHubCfg GitHubConfig `envPrefix:"GITHUB_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"30s"`
	Token                 string        `env:"TOKEN"`
	URL                   string        `env:"SERVICE_URL"`
}

type EmbeddingConnectorConfig struct {
	HTTPClientConfig
	Model string `env:"MODEL" envDefault:"sentence-transformers/all-mpnet-base-v2"`

	// Dimension must match the persisted index; the mismatch is detected
	// eagerly at startup, not at first query.
	Dimension int             `env:"DIMENSION" envDefault:"768"`
	CacheTTL  time.Duration   `env:"CACHE_TTL" envDefault:"10m"`
	Retry     pkgRetry.Config `envPrefix:"RETRY_"`
}

type LLMConnectorConfig struct {
	HTTPClientConfig
	Model       string          `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	MaxTokens   int             `env:"MAX_TOKENS" envDefault:"1000"`
	Temperature float64         `env:"TEMPERATURE" envDefault:"0"`
	Retry       pkgRetry.Config `envPrefix:"RETRY_"`
}

// RetrievalConfig tunes the retriever and the context assembler.
type RetrievalConfig struct {
	TopK        int `env:"TOP_K" envDefault:"2"`
	FetchK      int `env:"FETCH_K" envDefault:"3"`
	PerDocChars int `env:"PER_DOC_CHARS" envDefault:"200"`
	TotalChars  int `env:"TOTAL_CHARS" envDefault:"2000"`
}

// GitHubConfig configures the offline issue fetcher.
type GitHubConfig struct {
	Token     string `env:"TOKEN"`
	Owner     string `env:"OWNER" envDefault:"kubernetes"`
	Repo      string `env:"REPO" envDefault:"kubernetes"`
	MaxIssues int    `env:"MAX_ISSUES" envDefault:"50"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.RetrievalCfg.TopK < 0 {
		return &entity.ConfigError{Reason: fmt.Sprintf("RETRIEVAL_TOP_K must not be negative, got %d", cfg.RetrievalCfg.TopK)}
	}
	if cfg.RetrievalCfg.FetchK < 0 {
		return &entity.ConfigError{Reason: fmt.Sprintf("RETRIEVAL_FETCH_K must not be negative, got %d", cfg.RetrievalCfg.FetchK)}
	}
	if cfg.RetrievalCfg.PerDocChars < 1 {
		return &entity.ConfigError{Reason: fmt.Sprintf("RETRIEVAL_PER_DOC_CHARS must be positive, got %d", cfg.RetrievalCfg.PerDocChars)}
	}
	if cfg.RetrievalCfg.TotalChars < cfg.RetrievalCfg.PerDocChars {
		return &entity.ConfigError{Reason: fmt.Sprintf("RETRIEVAL_TOTAL_CHARS must be at least RETRIEVAL_PER_DOC_CHARS(%d), got %d",
			cfg.RetrievalCfg.PerDocChars, cfg.RetrievalCfg.TotalChars)}
	}
	if cfg.EmbeddingCfg.Dimension < 1 {
		return &entity.ConfigError{Reason: fmt.Sprintf("EMBEDDING_DIMENSION must be positive, got %d", cfg.EmbeddingCfg.Dimension)}
	}

	// Real connectors need endpoints; with mocks enabled the service can
	// run fully offline.
	if !cfg.EnableMocks {
		if cfg.EmbeddingCfg.URL == "" {
			return &entity.ConfigError{Reason: "EMBEDDING_SERVICE_URL is required when mocks are disabled"}
		}
		if cfg.LLMCfg.URL == "" {
			return &entity.ConfigError{Reason: "LLM_SERVICE_URL is required when mocks are disabled"}
		}
		if cfg.LLMCfg.Token == "" {
			return &entity.ConfigError{Reason: "LLM_TOKEN is required when mocks are disabled"}
		}
	}

	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
